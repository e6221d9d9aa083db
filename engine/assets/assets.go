package assets

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/vtabletop/engine/core"
)

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic uint32 = 0x07230203

const (
	shaderExt       = ".spv"
	spirvHeaderSize = 20
)

// ShaderLibrary loads compiled SPIR-V blobs from a directory and caches them
// by name. When watching, a blob that changes on disk is dropped from the
// cache; pipelines already built from it are not rebuilt.
type ShaderLibrary struct {
	dir string

	mutex sync.RWMutex
	cache map[string][]byte

	watcher *fsnotify.Watcher
	changes chan string
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewShaderLibrary(dir string) *ShaderLibrary {
	return &ShaderLibrary{
		dir:   dir,
		cache: make(map[string][]byte),
	}
}

// Dir is the directory blobs are read from.
func (sl *ShaderLibrary) Dir() string {
	return sl.dir
}

// Load returns the blob for name, e.g. "mesh.vert" reads mesh.vert.spv.
// Missing or malformed blobs fail with core.ErrShaderLoad.
func (sl *ShaderLibrary) Load(name string) ([]byte, error) {
	sl.mutex.RLock()
	code, ok := sl.cache[name]
	sl.mutex.RUnlock()
	if ok {
		return code, nil
	}

	path := filepath.Join(sl.dir, name+shaderExt)
	code, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%s does not exist", path)
		}
		return nil, core.NewError(core.ErrShaderLoad, "Load("+name+")", err)
	}
	if err := ValidateSPIRV(code); err != nil {
		return nil, core.NewError(core.ErrShaderLoad, "Load("+name+")", fmt.Errorf("%s: %w", path, err))
	}

	sl.mutex.Lock()
	sl.cache[name] = code
	sl.mutex.Unlock()

	core.LogDebug("loaded shader blob %s (%d bytes)", path, len(code))
	return code, nil
}

// Cached reports whether name is currently cached.
func (sl *ShaderLibrary) Cached(name string) bool {
	sl.mutex.RLock()
	defer sl.mutex.RUnlock()
	_, ok := sl.cache[name]
	return ok
}

// ValidateSPIRV checks the blob is word aligned and starts with the SPIR-V
// magic number.
func ValidateSPIRV(code []byte) error {
	if len(code) < spirvHeaderSize {
		return fmt.Errorf("blob of %d bytes is shorter than a SPIR-V header", len(code))
	}
	if len(code)%4 != 0 {
		return fmt.Errorf("blob size %d is not a multiple of 4", len(code))
	}
	if magic := binary.LittleEndian.Uint32(code); magic != SPIRVMagic {
		return fmt.Errorf("bad magic number 0x%08x", magic)
	}
	return nil
}

// Watch starts watching the shader directory. Names of invalidated blobs are
// delivered on the returned channel, which is closed by Close.
func (sl *ShaderLibrary) Watch() (<-chan string, error) {
	if sl.watcher != nil {
		return sl.changes, nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, core.NewError(core.ErrSetup, "ShaderLibrary.Watch", err)
	}
	if err := watcher.Add(sl.dir); err != nil {
		watcher.Close()
		return nil, core.NewError(core.ErrSetup, "ShaderLibrary.Watch", err)
	}

	sl.watcher = watcher
	sl.changes = make(chan string, 16)
	sl.done = make(chan struct{})
	sl.wg.Add(1)
	go sl.start()
	return sl.changes, nil
}

func (sl *ShaderLibrary) start() {
	defer sl.wg.Done()
	for {
		select {
		case e, ok := <-sl.watcher.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Ext(e.Name) != shaderExt {
				continue
			}
			sl.invalidate(strings.TrimSuffix(filepath.Base(e.Name), shaderExt))

		case err, ok := <-sl.watcher.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-sl.done:
			return
		}
	}
}

func (sl *ShaderLibrary) invalidate(name string) {
	sl.mutex.Lock()
	_, cached := sl.cache[name]
	delete(sl.cache, name)
	sl.mutex.Unlock()

	if cached {
		core.LogWarn("shader %s changed on disk; live pipelines keep the code they were built with", name)
	}
	select {
	case sl.changes <- name:
	default:
	}
}

// Close stops watching. It is safe to call on a library that never watched.
func (sl *ShaderLibrary) Close() error {
	if sl.watcher == nil {
		return nil
	}
	close(sl.done)
	err := sl.watcher.Close()
	sl.wg.Wait()
	close(sl.changes)
	sl.watcher = nil
	return err
}
