package keystore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/types"
)

var _ types.KeyStore = (*KeyRepo)(nil)

// KeyRepo keeps one encrypted json file per key under dir.
type KeyRepo struct {
	sync.Mutex
	dir     string
	scryptN int
	scryptP int
}

type Option func(*KeyRepo)

// LightScrypt trades key-file hardness for speed.
func LightScrypt() Option {
	return func(kr *KeyRepo) {
		kr.scryptN = LightScryptN
		kr.scryptP = LightScryptP
	}
}

func NewKeyRepo(dir string, opts ...Option) (*KeyRepo, error) {
	err := os.MkdirAll(dir, 0700)
	if err != nil {
		return nil, err
	}

	kr := &KeyRepo{
		dir:     dir,
		scryptN: StandardScryptN,
		scryptP: StandardScryptP,
	}

	for _, o := range opts {
		o(kr)
	}

	return kr, nil
}

func (kr *KeyRepo) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", xerrors.Errorf("invalid key name %q", name)
	}
	return filepath.Join(kr.dir, name), nil
}

func (kr *KeyRepo) List() ([]string, error) {
	files, err := os.ReadDir(kr.dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	for _, fi := range files {
		if fi.IsDir() || strings.HasPrefix(fi.Name(), ".") {
			continue
		}
		names = append(names, fi.Name())
	}
	return names, nil
}

func (kr *KeyRepo) Get(name, password string) (types.KeyInfo, error) {
	p, err := kr.path(name)
	if err != nil {
		return types.KeyInfo{}, err
	}

	keyjson, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return types.KeyInfo{}, xerrors.Errorf("%s: %w", name, types.ErrKeyInfoNotFound)
		}
		return types.KeyInfo{}, err
	}

	k, err := decryptKey(keyjson, password)
	if err != nil {
		return types.KeyInfo{}, err
	}

	// no swap attacks
	if k.Name != name {
		return types.KeyInfo{}, xerrors.Errorf("key content mismatch: have %s, want %s", k.Name, name)
	}

	return types.KeyInfo{
		Type:      k.Type,
		SecretKey: k.SecretKey,
	}, nil
}

func (kr *KeyRepo) Put(name, password string, ki types.KeyInfo) error {
	kr.Lock()
	defer kr.Unlock()

	p, err := kr.path(name)
	if err != nil {
		return err
	}

	_, err = os.Stat(p)
	if err == nil {
		return xerrors.Errorf("%s: %w", name, types.ErrKeyExists)
	}

	k, err := newKey(name, ki)
	if err != nil {
		return err
	}

	keyjson, err := encryptKey(k, password, kr.scryptN, kr.scryptP)
	if err != nil {
		return err
	}

	return writeKeyFile(p, keyjson)
}

// Delete needs the password so a stolen session cannot drop keys.
func (kr *KeyRepo) Delete(name, password string) error {
	_, err := kr.Get(name, password)
	if err != nil {
		return err
	}

	kr.Lock()
	defer kr.Unlock()

	p, err := kr.path(name)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

func (kr *KeyRepo) Close() error {
	return nil
}
