package trafficwatch

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadLabels reads the class labels the upstream detector was trained
// with from the given text file, one label per line in class index
// order.  Blank lines are skipped and a file yielding no labels is an
// error
func LoadLabels(file string) ([]string, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)

	var labels []string

	for scanner.Scan() {

		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		labels = append(labels, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("no labels in %s", file)
	}

	return labels, nil
}
