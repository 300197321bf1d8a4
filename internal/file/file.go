package file

import "os"

// Exists returns a bool indicating if the specified file exists.
func Exists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return !info.IsDir()
}
