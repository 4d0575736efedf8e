package extbundle

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/boyter/gocodewalker"
)

// DefaultExclusions lists directory names and filename patterns that never
// belong in a published extension package.
var DefaultExclusions = struct {
	// ExcludeDirectory: exact directory names (case-sensitive)
	ExcludeDirectory []string
	// ExcludeFilenamePatterns: patterns matched against base filenames
	ExcludeFilenamePatterns []string
}{
	ExcludeDirectory: []string{
		// Dependencies
		"node_modules",

		// Version control
		".git",

		// Test/Coverage
		"__tests__",
		"coverage",
	},

	ExcludeFilenamePatterns: []string{
		// Test files
		"*.test.js",
		"*.test.ts",
		"*.spec.js",
		"*.spec.ts",

		// Log files
		"*.log",

		// Temp files
		"*.swp",
	},
}

// PackOptions configures packaging behavior.
type PackOptions struct {
	ExcludeDefaults bool // If true, don't apply default exclusions
	Verbose         bool // Track individual excluded files
}

// PackStats tracks what went into (and stayed out of) a package.
type PackStats struct {
	mu            sync.Mutex
	FilesIncluded int
	FilesExcluded int
	BytesIncluded int64
	BytesExcluded int64
	ExcludedPaths []string
}

func (s *PackStats) addIncluded(bytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FilesIncluded++
	s.BytesIncluded += bytes
}

func (s *PackStats) addExcluded(path string, bytes int64, verbose bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FilesExcluded++
	s.BytesExcluded += bytes
	if verbose {
		s.ExcludedPaths = append(s.ExcludedPaths, path)
	}
}

// Pack zips a validated extension directory into destZip, skipping
// development files (node_modules, .git, test files) unless default
// exclusions are disabled. The walker honors .gitignore files in the
// extension directory.
func Pack(bundle *Bundle, destZip string, opts *PackOptions) (*PackStats, error) {
	if opts == nil {
		opts = &PackOptions{}
	}

	stats := &PackStats{}

	zipFile, err := os.Create(destZip)
	if err != nil {
		return nil, err
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)
	defer zipWriter.Close()

	fileQueue := make(chan *gocodewalker.File, 256)
	walker := gocodewalker.NewFileWalker(bundle.Dir, fileQueue)
	walker.IncludeHidden = true

	if !opts.ExcludeDefaults {
		walker.ExcludeDirectory = append(walker.ExcludeDirectory, DefaultExclusions.ExcludeDirectory...)
		walker.ExcludeFilename = append(walker.ExcludeFilename, DefaultExclusions.ExcludeFilenamePatterns...)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- walker.Start()
	}()

	dirsAdded := make(map[string]struct{})

	for f := range fileQueue {
		relPath, err := filepath.Rel(bundle.Dir, f.Location)
		if err != nil {
			return stats, err
		}
		relPath = filepath.ToSlash(relPath)

		if !opts.ExcludeDefaults && matchesExcludedPattern(filepath.Base(f.Location)) {
			var size int64
			if info, err := os.Lstat(f.Location); err == nil {
				size = info.Size()
			}
			stats.addExcluded(relPath, size, opts.Verbose)
			continue
		}

		// Parent directory entries keep extraction simple on the registry side.
		if dir := filepath.Dir(relPath); dir != "." && dir != "" {
			segments := strings.Split(dir, "/")
			var current string
			for _, segment := range segments {
				if current == "" {
					current = segment
				} else {
					current = current + "/" + segment
				}
				if _, exists := dirsAdded[current+"/"]; !exists {
					if _, err := zipWriter.Create(current + "/"); err != nil {
						return stats, err
					}
					dirsAdded[current+"/"] = struct{}{}
				}
			}
		}

		fileInfo, err := os.Lstat(f.Location)
		if err != nil {
			return stats, err
		}

		if fileInfo.Mode()&os.ModeSymlink != 0 {
			linkTarget, err := os.Readlink(f.Location)
			if err != nil {
				return stats, err
			}

			hdr := &zip.FileHeader{
				Name:   relPath,
				Method: zip.Store,
			}
			hdr.SetMode(os.ModeSymlink | 0777)

			zipFileWriter, err := zipWriter.CreateHeader(hdr)
			if err != nil {
				return stats, err
			}
			if _, err := zipFileWriter.Write([]byte(linkTarget)); err != nil {
				return stats, err
			}
			stats.addIncluded(int64(len(linkTarget)))
			continue
		}

		zipFileWriter, err := zipWriter.Create(relPath)
		if err != nil {
			return stats, err
		}

		file, err := os.Open(f.Location)
		if err != nil {
			return stats, err
		}

		written, err := io.Copy(zipFileWriter, file)
		closeErr := file.Close()
		if closeErr != nil {
			return stats, closeErr
		}
		if err != nil {
			return stats, err
		}

		stats.addIncluded(written)
	}

	if err := <-errChan; err != nil {
		return stats, fmt.Errorf("directory walk failed: %w", err)
	}

	return stats, nil
}

func matchesExcludedPattern(filename string) bool {
	for _, pattern := range DefaultExclusions.ExcludeFilenamePatterns {
		if matched, err := filepath.Match(pattern, filename); err == nil && matched {
			return true
		}
	}
	return false
}
