// Command threecrypt symmetrically encrypts and decrypts files using a
// passphrase, producing self-describing ciphertext containers (CBC_V2 or
// the supplemental DRAGONFLY_V1 format) with an embedded header and an
// authentication tag.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:]))
}
