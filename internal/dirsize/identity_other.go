//go:build !unix

package dirsize

import "io/fs"

type fileID struct{}

func identity(fs.FileInfo) (fileID, bool) {
	return fileID{}, false
}

func linkIdentity(fs.FileInfo) (fileID, bool) {
	return fileID{}, false
}
