package fsutil

import (
	"bytes"
	"crypto"
	"crypto/sha512"
	"errors"
	"fmt"
	"os"

	goupdate "github.com/doitdistributed/go-update"
)

// Replace swaps the file at path for data and verifies the written content
// against its SHA-512 checksum. It is meant for files handed to the user,
// such as exports and settings; state the daemon depends on goes through
// WriteFileAtomic.
func Replace(path string, data []byte, perm os.FileMode) error {
	// go-update renames the current file aside, so it has to exist.
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err = os.WriteFile(path, nil, perm); err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
	}

	checksum := sha512.Sum512(data)

	err := goupdate.Apply(bytes.NewReader(data), goupdate.Options{
		TargetPath: path,
		TargetMode: perm,
		Checksum:   checksum[:],
		Hash:       crypto.SHA512,
	})
	if err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	return nil
}
