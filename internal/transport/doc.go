// Package transport implements types.Comm over an in-process group and over NATS.
//
// Both transports deliver into per-link bounded FIFO mailboxes keyed by
// (source, destination, tag). Send blocks only when the destination mailbox
// of that link is full, so with a depth of at least two the halo exchange can
// never deadlock: a worker is never more than one iteration ahead of a
// neighbor, which bounds the number of undelivered halo messages on any link
// to two.
package transport
