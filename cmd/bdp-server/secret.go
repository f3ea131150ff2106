package main

import "crypto/rand"

// ephemeralSecret generates a per-process signing key for presigned
// download URLs when BDP_BLOB_SECRET isn't configured. URLs signed with it
// stop validating across restarts, which is fine for local/dev use but
// unsuitable behind more than one server replica — production deployments
// should set BDP_BLOB_SECRET explicitly.
func ephemeralSecret() []byte {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("bdp-server: failed to generate ephemeral blob secret: " + err.Error())
	}
	return buf
}
