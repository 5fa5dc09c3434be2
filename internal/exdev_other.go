//go:build !unix

package internal

func isEXDEV(err error) bool {
	return false
}
