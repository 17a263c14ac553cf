package repo

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	lockfile "github.com/ipfs/go-fs-lock"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/config"
	"github.com/memoio/go-betawallet/lib/backend/keystore"
	"github.com/memoio/go-betawallet/lib/backend/kv"
	logging "github.com/memoio/go-betawallet/lib/log"
	"github.com/memoio/go-betawallet/lib/types"
	"github.com/memoio/go-betawallet/lib/types/store"
)

// layout under $BWALLET_PATH
const (
	apiFile        = "api"
	tokenFile      = "token"
	versionFile    = "version"
	configFilename = "config.json"
	lockFile       = "repo.lock"

	keyStorePathPrefix = "keystore"
	metaPathPrefix     = "meta"
)

// Version of the on-disk layout; bumped when the meta store format changes.
const Version = 1

var logger = logging.Logger("repo")

var ErrRepoVersion = xerrors.New("repo version mismatch")

// FSRepo is a repo implementation backed by a filesystem.
type FSRepo struct {
	path string

	// lk protects the config file
	lk  sync.RWMutex
	cfg *config.Config

	keyDs  types.KeyStore
	metaDs store.KVStore

	// held while the repo is open
	lockfile io.Closer
}

var _ Repo = (*FSRepo)(nil)

// NewFSRepo opens the repo at dir; a nil cfg requires an initialized repo,
// otherwise cfg is written as the config of a fresh one.
func NewFSRepo(dir string, cfg *config.Config) (*FSRepo, error) {
	repoPath, err := homedir.Expand(dir)
	if err != nil {
		return nil, err
	}

	if repoPath == "" {
		repoPath = "./"
	}

	if err := ensureWritableDirectory(repoPath); err != nil {
		return nil, xerrors.Errorf("no writable directory %w", err)
	}

	// Resolve path if it's a symlink.
	repoPath, err = filepath.EvalSymlinks(repoPath)
	if err != nil {
		return nil, xerrors.Errorf("failed to resolve repo path %s %w", dir, err)
	}

	r := &FSRepo{path: repoPath}

	r.lockfile, err = lockfile.Lock(r.path, lockFile)
	if err != nil {
		return nil, xerrors.Errorf("failed to take repo lock %w", err)
	}

	exist, err := Exists(repoPath)
	if err != nil {
		_ = r.lockfile.Close()
		return nil, xerrors.Errorf("failed to check for repo config %w", err)
	}

	if !exist {
		if cfg == nil {
			_ = r.lockfile.Close()
			return nil, xerrors.Errorf("no repo found at %s; run: 'init [--repo=%s]'", repoPath, repoPath)
		}

		logger.Info("initializing wallet repo at: ", repoPath)
		if err := r.init(cfg); err != nil {
			_ = r.lockfile.Close()
			return nil, err
		}
	}

	if err := r.loadFromDisk(); err != nil {
		r.closeStores()
		_ = r.lockfile.Close()
		return nil, err
	}

	logger.Info("open repo at: ", repoPath)

	return r, nil
}

func (r *FSRepo) init(cfg *config.Config) error {
	if err := os.MkdirAll(filepath.Join(r.path, keyStorePathPrefix), 0700); err != nil {
		return xerrors.Errorf("initializing keystore directory failed %w", err)
	}

	if err := writeFileAtomic(filepath.Join(r.path, versionFile), []byte(strconv.Itoa(Version))); err != nil {
		return xerrors.Errorf("writing repo version failed %w", err)
	}

	// the config goes last; Exists keys on it
	if err := r.writeConfig(cfg); err != nil {
		return xerrors.Errorf("initializing config file failed %w", err)
	}

	return nil
}

func (r *FSRepo) loadFromDisk() error {
	if err := r.checkVersion(); err != nil {
		return err
	}

	cfg, err := config.ReadFile(filepath.Join(r.path, configFilename))
	if err != nil {
		return xerrors.Errorf("failed to load config file %w", err)
	}
	r.cfg = cfg

	r.keyDs, err = keystore.NewKeyRepo(filepath.Join(r.path, keyStorePathPrefix))
	if err != nil {
		return xerrors.Errorf("failed to open keystore %w", err)
	}

	mpath := r.cfg.Data.MetaPath
	if mpath == "" {
		mpath = filepath.Join(r.path, metaPathPrefix)
	}

	opt := kv.DefaultOptions
	r.metaDs, err = kv.NewBadgerStore(mpath, &opt)
	if err != nil {
		return xerrors.Errorf("failed to open meta store %w", err)
	}

	return nil
}

func (r *FSRepo) checkVersion() error {
	b, err := os.ReadFile(filepath.Join(r.path, versionFile))
	if err != nil {
		return xerrors.Errorf("failed to read repo version %w", err)
	}

	v, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || v != Version {
		return xerrors.Errorf("repo has %q, binary wants %d: %w", b, Version, ErrRepoVersion)
	}

	return nil
}

func (r *FSRepo) Config() *config.Config {
	r.lk.RLock()
	defer r.lk.RUnlock()

	return r.cfg
}

// ReplaceConfig replaces the current config with the newly passed in one.
func (r *FSRepo) ReplaceConfig(cfg *config.Config) error {
	r.lk.Lock()
	defer r.lk.Unlock()

	if err := r.writeConfig(cfg); err != nil {
		return err
	}
	r.cfg = cfg
	return nil
}

func (r *FSRepo) writeConfig(cfg *config.Config) error {
	tmp := filepath.Join(r.path, "."+configFilename+".temp")
	if err := cfg.WriteFile(tmp); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(r.path, configFilename))
}

func (r *FSRepo) KeyStore() types.KeyStore {
	return r.keyDs
}

func (r *FSRepo) MetaStore() store.KVStore {
	return r.metaDs
}

// Close closes the stores, drops the files clients dial with and
// releases the lock.
func (r *FSRepo) Close() error {
	if err := r.closeStores(); err != nil {
		return err
	}

	for _, f := range []string{apiFile, tokenFile} {
		if err := removeFile(filepath.Join(r.path, f)); err != nil {
			return xerrors.Errorf("failed to remove %s file %w", f, err)
		}
	}

	return r.lockfile.Close()
}

func (r *FSRepo) closeStores() error {
	if r.metaDs != nil {
		if err := r.metaDs.Close(); err != nil {
			return xerrors.Errorf("failed to close meta datastore %w", err)
		}
		r.metaDs = nil
	}

	if r.keyDs != nil {
		if err := r.keyDs.Close(); err != nil {
			return xerrors.Errorf("failed to close keystore %w", err)
		}
		r.keyDs = nil
	}

	return nil
}

// Path returns the path the fsrepo is at
func (r *FSRepo) Path() (string, error) {
	return r.path, nil
}

// SetAPIAddr writes the listen multiaddr for clients.
func (r *FSRepo) SetAPIAddr(maddr string) error {
	return writeFileAtomic(filepath.Join(r.path, apiFile), []byte(maddr))
}

func (r *FSRepo) APIAddr() (string, error) {
	return APIAddrFromPath(r.path)
}

// SetAPIToken writes the admin token for local clients.
func (r *FSRepo) SetAPIToken(token []byte) error {
	return writeFileAtomic(filepath.Join(r.path, tokenFile), token)
}

func (r *FSRepo) APIToken() ([]byte, error) {
	return APITokenFromPath(r.path)
}

// APIAddrFromPath reads the api file a running node left in repoPath.
func APIAddrFromPath(repoPath string) (string, error) {
	b, err := os.ReadFile(filepath.Join(filepath.Clean(repoPath), apiFile))
	if err != nil {
		return "", xerrors.Errorf("failed to read API file %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func APITokenFromPath(repoPath string) ([]byte, error) {
	tk, err := os.ReadFile(filepath.Join(filepath.Clean(repoPath), tokenFile))
	if err != nil {
		return nil, xerrors.Errorf("failed to read token file %w", err)
	}
	return tk, nil
}

// Exists reports whether repoPath holds an initialized repo.
func Exists(repoPath string) (bool, error) {
	_, err := os.Stat(filepath.Join(repoPath, configFilename))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, err
	}
}

// Ensures that path points to a read/writable directory, creating it if necessary.
func ensureWritableDirectory(path string) error {
	err := os.Mkdir(path, 0775)
	if err == nil {
		return nil
	} else if !os.IsExist(err) {
		return xerrors.Errorf("failed to create directory %s %w", path, err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return xerrors.Errorf("failed to stat path %s %w", path, err)
	}
	if !stat.IsDir() {
		return xerrors.Errorf("%s is not a directory", path)
	}
	if (stat.Mode() & 0600) != 0600 {
		return xerrors.Errorf("insufficient permissions for path %s, got %04o need %04o", path, stat.Mode(), 0600)
	}
	return nil
}

// writeFileAtomic never leaves a half written file behind for readers.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".temp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
