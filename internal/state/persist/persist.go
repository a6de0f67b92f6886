// Package persist keeps small binary state records on disk with extremofile.
package persist

import (
	"encoding"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/extremofile"
	"github.com/temoto/yc01-bridge/log2"
)

type Stater interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

type storage interface {
	// nil,nil = no data
	Read() ([]byte, error)
	io.Writer
}

// Persist binds Stater to storage directory root/tag.
// Empty root disables storage, Load and Store become no-op.
type Persist struct {
	mu      sync.Mutex
	log     *log2.Log
	tag     string
	target  Stater
	storage storage
}

func New(log *log2.Log, tag string, target Stater, root string) *Persist {
	if target == nil {
		panic("code error persist target=nil")
	}
	self := &Persist{log: log, tag: tag, target: target}
	if root == "" {
		self.log.Debugf("persist %s disabled", tag)
		return self
	}
	self.storage = extremofile.New(extremofile.Config{
		Dir:      filepath.Join(root, tag),
		DirPerm:  0755,
		FilePerm: 0644,
	})
	return self
}

func (self *Persist) Enabled() bool { return self.storage != nil }

// Load returns found=false when storage is disabled or empty, target is untouched then.
func (self *Persist) Load() (found bool, err error) {
	if self.storage == nil {
		return false, nil
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	tbegin := time.Now()
	b, err := self.storage.Read()
	self.log.Debugf("persist %s read duration=%v", self.tag, time.Since(tbegin))
	if b == nil {
		return false, errors.Annotatef(err, "persist %s load", self.tag)
	}
	if err != nil {
		self.log.Errorf("persist %s ignore non-critical storage err=%v", self.tag, err)
	}
	err = self.target.UnmarshalBinary(b)
	return err == nil, errors.Annotatef(err, "persist %s load", self.tag)
}

func (self *Persist) Store() error {
	if self.storage == nil {
		return nil
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	b, err := self.target.MarshalBinary()
	if err == nil {
		tbegin := time.Now()
		_, err = self.storage.Write(b)
		self.log.Debugf("persist %s write duration=%v", self.tag, time.Since(tbegin))
	}
	return errors.Annotatef(err, "persist %s store", self.tag)
}
