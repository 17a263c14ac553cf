package keystore

import (
	"bytes"
	"testing"

	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/crypto/signature"
	"github.com/memoio/go-betawallet/lib/types"
)

func TestKeyRepo(t *testing.T) {
	pw := "12345678"

	kp, err := NewKeyRepo(t.TempDir(), LightScrypt())
	if err != nil {
		t.Fatal(err)
	}

	ki, err := signature.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	addr, err := signature.GetAdressFromKey(ki)
	if err != nil {
		t.Fatal(err)
	}

	name := addr.String()

	err = kp.Put(name, pw, *ki)
	if err != nil {
		t.Fatal(err)
	}

	err = kp.Put(name, pw, *ki)
	if !xerrors.Is(err, types.ErrKeyExists) {
		t.Fatal("duplicate put should fail", err)
	}

	nki, err := kp.Get(name, pw)
	if err != nil {
		t.Fatal(err)
	}

	if nki.Type != ki.Type || !bytes.Equal(nki.SecretKey, ki.SecretKey) {
		t.Fatal("not equal")
	}

	_, err = kp.Get(name, "wrong")
	if err != ErrDecrypt {
		t.Fatal("wrong password should not decrypt", err)
	}

	names, err := kp.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != name {
		t.Fatal("list", names)
	}

	if err := kp.Delete(name, "wrong"); err == nil {
		t.Fatal("delete with wrong password")
	}

	if err := kp.Delete(name, pw); err != nil {
		t.Fatal(err)
	}

	_, err = kp.Get(name, pw)
	if !xerrors.Is(err, types.ErrKeyInfoNotFound) {
		t.Fatal("key should be gone", err)
	}

	if _, err := kp.Get("../escape", pw); err == nil {
		t.Fatal("path escape")
	}
}
