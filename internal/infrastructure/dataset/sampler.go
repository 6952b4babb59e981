package dataset

import (
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
)

// MaxSamplesPerClass ограничение числа файлов, берущихся из одной папки класса.
const MaxSamplesPerClass = 250

// SampleFiles выбирает равномерно без повторов min(len(files), max) элементов.
// Входной срез не меняется.
func SampleFiles(files []string, max int, rnd *rand.Rand) []string {
	n := len(files)
	if max < 0 || max > n {
		max = n
	}
	perm := rnd.Perm(n)[:max]
	out := make([]string, max)
	for i, j := range perm {
		out[i] = files[j]
	}
	return out
}

// entryMode тип записи каталога; символические ссылки разыменовываются,
// битая ссылка не считается ни файлом, ни каталогом.
func entryMode(path string, e fs.DirEntry) fs.FileMode {
	if e.Type()&fs.ModeSymlink == 0 {
		return e.Type()
	}
	info, err := os.Stat(path)
	if err != nil {
		return fs.ModeIrregular
	}
	return info.Mode().Type()
}

// listFiles возвращает обычные файлы папки в лексикографическом порядке,
// чтобы выборка при одинаковом seed не зависела от порядка обхода ФС.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list files in %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if entryMode(path, e).IsRegular() {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files, nil
}
