package kproto

import "fmt"

func errCRCMismatch(want, got uint32) error {
	return fmt.Errorf("kproto: crc mismatch: wire=%d computed=%d", want, got)
}

func errUnknownMagic(magic int8) error {
	return fmt.Errorf("kproto: unrecognized magic byte %d", magic)
}

func errEmptyInnerSet() error {
	return fmt.Errorf("kproto: compressed message's inner set decoded to zero messages")
}
