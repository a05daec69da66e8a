package inspection

import "os"

func ensureDir(path string) error {
	return os.MkdirAll(path, 0o750)
}

func removeDir(path string) error {
	return os.RemoveAll(path)
}
