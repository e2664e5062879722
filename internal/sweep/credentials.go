package sweep

import (
	"bufio"
	"os"
	"strings"
)

// Credential is one (host, username, password) combination under test.
type Credential struct {
	Host string
	User string
	Pass string
}

// Iterator enumerates the cartesian product of the three input lists in a
// fixed order: host outer, username middle, password inner. Every triple is
// produced exactly once; duplicates in the inputs are not deduplicated.
type Iterator struct {
	hosts, users, passwords []string
	h, u, p                 int
}

// NewIterator returns an iterator over hosts × usernames × passwords.
func NewIterator(hosts, users, passwords []string) *Iterator {
	return &Iterator{hosts: hosts, users: users, passwords: passwords}
}

// Next returns the next credential triple, or false when the product is
// exhausted.
func (it *Iterator) Next() (Credential, bool) {
	if it.h >= len(it.hosts) || it.u >= len(it.users) || it.p >= len(it.passwords) {
		return Credential{}, false
	}
	cred := Credential{
		Host: it.hosts[it.h],
		User: it.users[it.u],
		Pass: it.passwords[it.p],
	}
	it.p++
	if it.p == len(it.passwords) {
		it.p = 0
		it.u++
		if it.u == len(it.users) {
			it.u = 0
			it.h++
		}
	}
	return cred, true
}

// LoadLines reads a line-delimited wordlist, trimming whitespace and
// skipping blank lines.
func LoadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	lines := make([]string, 0, 64)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
