package vault

// zero overwrites b with zero bytes. Used to scrub passwords and derived key
// material before they go out of scope; best-effort against compiler reordering,
// as the spec allows.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Keys holds the encryption and authentication keys derived for one vault open.
// Its lifetime is that of the Open (or destination write) that owns it.
type Keys struct {
	EncKey []byte
	MacKey []byte
}

// Zero scrubs both keys.
func (k *Keys) Zero() {
	zero(k.EncKey)
	zero(k.MacKey)
}
