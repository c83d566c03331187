package usecase

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// exporter copies artifacts into the output dir the moment they exist so a
// later fatal stage cannot take them away. Copy failures are logged only.
type exporter struct {
	dir string
	log zerolog.Logger

	mu    sync.Mutex
	names map[string]string
}

func newExporter(dir string, log zerolog.Logger) *exporter {
	return &exporter{dir: dir, log: log, names: map[string]string{}}
}

func (e *exporter) export(name, src, file string) {
	if e.dir == "" {
		return
	}
	if err := copyFile(src, filepath.Join(e.dir, file)); err != nil {
		e.log.Warn().Err(err).Str("artifact", name).Msg("export failed")
		return
	}
	e.mu.Lock()
	e.names[name] = file
	e.mu.Unlock()
	e.log.Debug().Str("artifact", name).Str("file", file).Msg("artifact exported")
}

func (e *exporter) file(name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.names[name]
}

func (e *exporter) files() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]string, len(e.names))
	for k, v := range e.names {
		out[k] = v
	}
	return out
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s: %w", filepath.Base(src), err)
	}
	return nil
}
