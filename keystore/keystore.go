// Package keystore persists stealth key material as an encrypted file. The
// cryptographic core stays I/O-free; this is the key-storage collaborator
// beside it. Files carry the public meta-address in the clear so wallets
// can display it without the password, and the private scalars under
// scrypt-derived AES-GCM.
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/scrypt"

	"github.com/sip-protocol/sip-go/stealth"
)

const (
	// Ext is the keystore file extension.
	Ext = ".sip"

	// scrypt parameters. Security is prioritized over performance: N=2^18
	// (~256MB RAM, 0.5-2s) keeps brute force extremely expensive while
	// remaining compatible with mobile memory limits.
	scryptN      = 1 << 18
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12
)

var (
	// ErrFileExists is returned when the target file already exists and is
	// not empty.
	ErrFileExists = errors.New("keystore file already exists")
	// ErrInvalidPassword is returned when decryption fails; the password
	// is wrong or the file is corrupt.
	ErrInvalidPassword = errors.New("invalid password")
)

// File is the on-disk keystore structure. MetaAddress and QR are public
// and readable without the password.
type File struct {
	Chain       string `json:"chain"`
	MetaAddress string `json:"metaAddress"`
	QR          string `json:"QR"`
	Salt        string `json:"salt"`
	Nonce       string `json:"nonce"`
	CipherText  string `json:"cipherText"`
}

// keyData is the encrypted interior: the private scalars plus the scheme
// needed to reinterpret them.
type keyData struct {
	Scheme      uint8  `json:"scheme"`
	SpendingKey []byte `json:"spendingKey"` // base64 in JSON
	ViewingKey  []byte `json:"viewingKey"`
	CreatedAt   string `json:"createdAt"`
}

// Save encrypts key material for a chain and writes it to a .sip file.
// password must be []byte for security (caller should zero it after use).
func Save(filePath, chain string, km *stealth.KeyMaterial, password []byte) error {
	if filepath.Ext(filePath) != Ext {
		return fmt.Errorf("file must have %s extension", Ext)
	}

	if info, err := os.Stat(filePath); err == nil && info.Size() > 0 {
		return ErrFileExists
	}

	meta := km.MetaAddress(chain)
	qr, err := meta.QRCode()
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return err
	}

	data := keyData{
		Scheme:      uint8(km.Spending.Scheme()),
		SpendingKey: km.Spending.Bytes(),
		ViewingKey:  km.Viewing.Bytes(),
		CreatedAt:   time.Now().Format(time.RFC3339),
	}
	defer clear(data.SpendingKey)
	defer clear(data.ViewingKey)

	plaintext, err := json.Marshal(&data)
	if err != nil {
		return fmt.Errorf("failed to marshal key data: %w", err)
	}
	defer clear(plaintext) // wipe plaintext bytes from memory

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	file := File{
		Chain:       chain,
		MetaAddress: meta.String(),
		QR:          qr,
		Salt:        base64.StdEncoding.EncodeToString(salt),
		Nonce:       base64.StdEncoding.EncodeToString(nonce),
		CipherText:  base64.StdEncoding.EncodeToString(ciphertext),
	}

	fileData, err := json.MarshalIndent(&file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal keystore file: %w", err)
	}

	// Add UTF-8 BOM for proper display in Windows
	utf8BOM := []byte{0xEF, 0xBB, 0xBF}
	fileDataWithBOM := append(utf8BOM, fileData...)

	if err := os.WriteFile(filePath, fileDataWithBOM, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Load reads and decrypts a .sip file.
// password must be []byte for security (caller should zero it after use).
func Load(filePath string, password []byte) (*File, *stealth.KeyMaterial, error) {
	file, err := readFile(filePath)
	if err != nil {
		return nil, nil, err
	}

	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(file.Nonce)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode nonce: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(file.CipherText)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return nil, nil, err
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, nil, ErrInvalidPassword
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	var data keyData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal key data: %w", err)
	}
	defer clear(data.SpendingKey)
	defer clear(data.ViewingKey)

	km, err := stealth.KeyMaterialFromBytes(stealth.SchemeID(data.Scheme), data.SpendingKey, data.ViewingKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reconstruct key material: %w", err)
	}

	return file, km, nil
}

// ReadMetaAddress reads only the meta-address from a .sip file, without
// decryption.
func ReadMetaAddress(filePath string) (string, error) {
	file, err := readFile(filePath)
	if err != nil {
		return "", err
	}
	return file.MetaAddress, nil
}

func readFile(filePath string) (*File, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("file does not exist")
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if info.Size() == 0 {
		return nil, errors.New("file is empty")
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Skip UTF-8 BOM if present
	if len(fileData) >= 3 && fileData[0] == 0xEF && fileData[1] == 0xBB && fileData[2] == 0xBF {
		fileData = fileData[3:]
	}

	var file File
	if err := json.Unmarshal(fileData, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keystore file: %w", err)
	}
	return &file, nil
}

func newGCM(password, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return aesGCM, nil
}
