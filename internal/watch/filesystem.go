package watch

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemType classifies the filesystem backing a watched path.
// fsnotify's inotify events are unreliable over network filesystems, so a
// remote type forces the polling fallback.
type FilesystemType int

const (
	FSTypeUnknown FilesystemType = iota
	FSTypeLocal
	FSTypeNFS
	FSTypeSMB
	FSTypeSSHFS
	FSTypeFUSE
)

func (t FilesystemType) String() string {
	switch t {
	case FSTypeLocal:
		return "local"
	case FSTypeNFS:
		return "nfs"
	case FSTypeSMB:
		return "smb"
	case FSTypeSSHFS:
		return "sshfs"
	case FSTypeFUSE:
		return "fuse"
	default:
		return "unknown"
	}
}

// detectFilesystemTypeFunc is swapped out in tests that need to force a
// remote classification without a real mount.
var detectFilesystemTypeFunc = detectFilesystemType

// DetectFilesystemType returns a best-effort classification of the
// filesystem backing path. An empty path or one /proc/mounts has no entry
// for classifies as FSTypeUnknown.
func DetectFilesystemType(path string) FilesystemType {
	return detectFilesystemTypeFunc(path)
}

func detectFilesystemType(path string) FilesystemType {
	if path == "" {
		return FSTypeUnknown
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return FSTypeUnknown
	}
	fstype, ok := lookupMountFilesystemType(abs)
	if !ok {
		return FSTypeUnknown
	}
	switch {
	case strings.Contains(fstype, "sshfs"):
		return FSTypeSSHFS
	case strings.HasPrefix(fstype, "nfs"):
		return FSTypeNFS
	case fstype == "cifs" || fstype == "smb3" || fstype == "smbfs":
		return FSTypeSMB
	case strings.HasPrefix(fstype, "fuse"):
		return FSTypeFUSE
	default:
		return FSTypeLocal
	}
}

// lookupMountFilesystemType scans /proc/mounts for the longest mount-point
// prefix of path and returns its recorded filesystem type.
func lookupMountFilesystemType(path string) (string, bool) {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		return "", false
	}
	defer f.Close()

	best := ""
	bestFSType := ""
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		mountPoint, fstype := fields[1], fields[2]
		if strings.HasPrefix(path, mountPoint) && len(mountPoint) > len(best) {
			best = mountPoint
			bestFSType = fstype
		}
	}
	if best == "" {
		return "", false
	}
	return bestFSType, true
}

// isRemoteFilesystem reports whether t denotes a filesystem backed by a
// network transport, where inotify delivery is unreliable.
func isRemoteFilesystem(t FilesystemType) bool {
	switch t {
	case FSTypeNFS, FSTypeSMB, FSTypeSSHFS, FSTypeFUSE:
		return true
	default:
		return false
	}
}
