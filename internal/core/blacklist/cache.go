package blacklist

import (
	"errors"
	"os"
	"path/filepath"
)

// Cache keeps the last good feed bodies on disk
type Cache struct{ dir string }

// NewCache returns nil for an empty dir, which disables caching
func NewCache(dir string) *Cache {
	if dir == "" {
		return nil
	}
	return &Cache{dir: dir}
}

// Dir is the cache directory
func (c *Cache) Dir() string { return c.dir }

// Save writes each body to a temp file and renames it into place
func (c *Cache) Save(f Feeds) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	var errs []error
	for name, b := range map[string][]byte{DomainsFile: f.Domains, IPsFile: f.IPs, URLsFile: f.URLs} {
		errs = append(errs, c.write(name, b))
	}
	return errors.Join(errs...)
}

func (c *Cache) write(name string, b []byte) error {
	tmp, err := os.CreateTemp(c.dir, "."+name+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(c.dir, name))
}

// Load reads all three files; a missing file fails the load
func (c *Cache) Load() (Feeds, error) {
	var f Feeds
	for name, dst := range map[string]*[]byte{DomainsFile: &f.Domains, IPsFile: &f.IPs, URLsFile: &f.URLs} {
		b, err := os.ReadFile(filepath.Join(c.dir, name))
		if err != nil {
			return Feeds{}, err
		}
		*dst = b
	}
	return f, nil
}
