package astro

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrEmptyCatalog is returned when a catalog file holds no star records.
var ErrEmptyCatalog = errors.New("star catalog has no records")

// ParseCatalog decodes newline-delimited records of the form
//
//	name,right_ascension,declination,magnitude
//
// with angles in radians. Blank lines and lines starting with '#' are
// skipped. A malformed or missing numeric field decodes as zero; only read
// errors are returned.
func ParseCatalog(r io.Reader) ([]Star, error) {
	var stars []Star

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" || line[0] == '#' {
			continue
		}
		stars = append(stars, parseStarRecord(line))
	}
	if err := sc.Err(); err != nil {
		return stars, fmt.Errorf("read star catalog: %w", err)
	}
	return stars, nil
}

func parseStarRecord(line string) Star {
	fields := strings.SplitN(line, ",", 4)

	var s Star
	s.Name = fields[0]
	if len(fields) > 1 {
		s.RA = parseField(fields[1])
	}
	if len(fields) > 2 {
		s.Dec = parseField(fields[2])
	}
	if len(fields) > 3 {
		s.Mag = parseField(fields[3])
	}
	return s
}

func parseField(f string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
	if err != nil {
		return 0
	}
	return v
}

// LoadCatalog reads a star catalog file.
func LoadCatalog(path string) ([]Star, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open star catalog: %w", err)
	}
	defer f.Close()

	stars, err := ParseCatalog(f)
	if err != nil {
		return nil, err
	}
	if len(stars) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyCatalog)
	}
	return stars, nil
}
