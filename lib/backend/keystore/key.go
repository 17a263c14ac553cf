package keystore

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	cr "crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"

	"github.com/memoio/go-betawallet/lib/types"
)

const (
	keyHeaderKDF  = "scrypt"
	latestVersion = 3

	// StandardScryptN is the N parameter of Scrypt encryption algorithm, using 256MB
	// memory and taking approximately 1s CPU time on a modern processor.
	StandardScryptN = 1 << 18
	StandardScryptP = 1

	// LightScryptN uses 4MB memory and approximately 100ms CPU time.
	LightScryptN = 1 << 12
	LightScryptP = 6

	scryptR     = 8
	scryptDKLen = 32
)

var (
	//ErrDecrypt before decrypt privatekey, we compare mac, if not equal, use ErrDecrypt
	ErrDecrypt = errors.New("could not decrypt key with given passphrase")
)

// key is a decrypted entry
type key struct {
	Id   uuid.UUID
	Name string
	Type byte
	// privkey in this struct is always in plaintext
	SecretKey []byte
}

type cipherparamsJSON struct {
	IV string `json:"iv"`
}

type CryptoJSON struct {
	Cipher       string                 `json:"cipher"`
	CipherText   string                 `json:"ciphertext"`
	CipherParams cipherparamsJSON       `json:"cipherparams"`
	KDF          string                 `json:"kdf"`
	KDFParams    map[string]interface{} `json:"kdfparams"`
	MAC          string                 `json:"mac"`
}

type encryptedKeyJSONV3 struct {
	Name    string     `json:"name"`
	Crypto  CryptoJSON `json:"crypto"`
	Type    byte       `json:"type"`
	Id      string     `json:"id"`
	Version int        `json:"version"`
}

func newKey(name string, ki types.KeyInfo) (*key, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}

	return &key{
		Id:        id,
		Name:      name,
		Type:      ki.Type,
		SecretKey: ki.SecretKey,
	}, nil
}

// encryptKey encrypts a key using the specified scrypt parameters into a json
// blob that can be decrypted later on.
func encryptKey(k *key, password string, scryptN, scryptP int) ([]byte, error) {
	salt := getEntropyCSPRNG(32)
	derivedKey, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptDKLen)
	if err != nil {
		return nil, err
	}
	encryptKey := derivedKey[:16]

	iv := getEntropyCSPRNG(aes.BlockSize) // aes-128-ctr
	cipherText, err := aesCTRXOR(encryptKey, k.SecretKey, iv)
	if err != nil {
		return nil, err
	}
	// mac checks the password on decryption
	mac := crypto.Keccak256(derivedKey[16:32], cipherText)

	scryptParamsJSON := make(map[string]interface{}, 5)
	scryptParamsJSON["n"] = scryptN
	scryptParamsJSON["r"] = scryptR
	scryptParamsJSON["p"] = scryptP
	scryptParamsJSON["dklen"] = scryptDKLen
	scryptParamsJSON["salt"] = hex.EncodeToString(salt)

	cryptoStruct := CryptoJSON{
		Cipher:       "aes-128-ctr",
		CipherText:   hex.EncodeToString(cipherText),
		CipherParams: cipherparamsJSON{IV: hex.EncodeToString(iv)},
		KDF:          keyHeaderKDF,
		KDFParams:    scryptParamsJSON,
		MAC:          hex.EncodeToString(mac),
	}

	return json.Marshal(encryptedKeyJSONV3{
		Name:    k.Name,
		Crypto:  cryptoStruct,
		Type:    k.Type,
		Id:      k.Id.String(),
		Version: latestVersion,
	})
}

// decryptKey decrypts a key from a json blob, returning the private key itself.
func decryptKey(keyjson []byte, password string) (*key, error) {
	k := new(encryptedKeyJSONV3)
	if err := json.Unmarshal(keyjson, k); err != nil {
		return nil, err
	}

	if k.Version != latestVersion {
		return nil, fmt.Errorf("version not supported: %v", k.Version)
	}

	if k.Crypto.Cipher != "aes-128-ctr" || k.Crypto.KDF != keyHeaderKDF {
		return nil, fmt.Errorf("cipher not supported: %s/%s", k.Crypto.Cipher, k.Crypto.KDF)
	}

	id, err := uuid.Parse(k.Id)
	if err != nil {
		return nil, err
	}

	mac, err := hex.DecodeString(k.Crypto.MAC)
	if err != nil {
		return nil, err
	}

	iv, err := hex.DecodeString(k.Crypto.CipherParams.IV)
	if err != nil {
		return nil, err
	}

	cipherText, err := hex.DecodeString(k.Crypto.CipherText)
	if err != nil {
		return nil, err
	}

	derivedKey, err := getKDFKey(k.Crypto, password)
	if err != nil {
		return nil, err
	}

	calculatedMAC := crypto.Keccak256(derivedKey[16:32], cipherText)
	if !bytes.Equal(calculatedMAC, mac) {
		return nil, ErrDecrypt
	}

	plainText, err := aesCTRXOR(derivedKey[:16], cipherText, iv)
	if err != nil {
		return nil, err
	}

	return &key{
		Id:        id,
		Name:      k.Name,
		Type:      k.Type,
		SecretKey: plainText,
	}, nil
}

func getKDFKey(cj CryptoJSON, password string) ([]byte, error) {
	salt, err := hex.DecodeString(cj.KDFParams["salt"].(string))
	if err != nil {
		return nil, err
	}

	dkLen := ensureInt(cj.KDFParams["dklen"])
	n := ensureInt(cj.KDFParams["n"])
	r := ensureInt(cj.KDFParams["r"])
	p := ensureInt(cj.KDFParams["p"])
	return scrypt.Key([]byte(password), salt, n, r, p, dkLen)
}

// json numbers decode as float64
func ensureInt(x interface{}) int {
	switch v := x.(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func aesCTRXOR(key, inText, iv []byte) ([]byte, error) {
	aesBlock, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	stream := cipher.NewCTR(aesBlock, iv)
	outText := make([]byte, len(inText))
	stream.XORKeyStream(outText, inText)
	return outText, nil
}

func getEntropyCSPRNG(n int) []byte {
	mainBuff := make([]byte, n)
	_, err := io.ReadFull(cr.Reader, mainBuff)
	if err != nil {
		panic("reading from crypto/rand failed: " + err.Error())
	}
	return mainBuff
}

func writeTemporaryKeyFile(file string, content []byte) (string, error) {
	const dirPerm = 0700
	if err := os.MkdirAll(filepath.Dir(file), dirPerm); err != nil {
		return "", err
	}
	// Atomic write: create a temporary hidden file first
	// then move it into place. CreateTemp assigns mode 0600.
	f, err := os.CreateTemp(filepath.Dir(file), "."+filepath.Base(file)+".tmp")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	f.Close()
	return f.Name(), nil
}

func writeKeyFile(file string, content []byte) error {
	name, err := writeTemporaryKeyFile(file, content)
	if err != nil {
		return err
	}
	return os.Rename(name, file)
}
