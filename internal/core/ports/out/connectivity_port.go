package out

type Mode string

const (
	// ModeOnline: the central database is reachable.
	ModeOnline Mode = "online"
	// ModeLocal: desktop shell explicitly pinned to the local backend.
	ModeLocal Mode = "local"
	// ModeOffline: desktop shell with no reachable central database.
	ModeOffline Mode = "offline"
)

// UsesCacheOnly reports whether reads must skip the remote entirely.
func (m Mode) UsesCacheOnly() bool {
	return m == ModeLocal || m == ModeOffline
}

// ConnectivityPort classifies the current connection. The router re-reads
// it on every call; the classification itself belongs to the desktop shell.
type ConnectivityPort interface {
	Mode() Mode
}
