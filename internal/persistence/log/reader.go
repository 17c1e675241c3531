package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"

	"heist.gg/internal/sim/world"
)

// Files returns the rotated files for prefix under dir, oldest first.
func Files(dir, prefix string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, prefix+"-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadLines streams every JSON line of a .jsonl.zst file to fn.
func ReadLines(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()
	return scanLines(dec, fn)
}

func scanLines(r io.Reader, fn func(line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	n := 0
	for sc.Scan() {
		n++
		if len(sc.Bytes()) == 0 {
			continue
		}
		if err := fn(sc.Bytes()); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
	}
	return sc.Err()
}

func ReadEvents(path string, fn func(world.GameEvent) error) error {
	return ReadLines(path, func(line []byte) error {
		var e world.GameEvent
		if err := json.Unmarshal(line, &e); err != nil {
			return err
		}
		return fn(e)
	})
}

func ReadRounds(path string, fn func(world.RoundSummary) error) error {
	return ReadLines(path, func(line []byte) error {
		var s world.RoundSummary
		if err := json.Unmarshal(line, &s); err != nil {
			return err
		}
		return fn(s)
	})
}
