/*
Package mpt implements the Ethereum-flavoured Merkle Patricia Trie.

Keys are split into nibbles and stored along radix paths made of four node
kinds: leaf, extension, branch and the empty node. Nodes are serialized with
RLP and addressed by the Keccak-256 digest of their encoding, except for
nodes whose encoding is shorter than the inline threshold (32 bytes by
default) which are embedded into their parent directly. The empty trie has
the well-known root 0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421.

Nodes are immutable: every Put or Delete builds new nodes along the affected
path and leaves everything reachable from previous roots intact, so a Trie
handle can be cheaply snapshotted. A Trie may be backed by a NodeLoader, in
which case digest references (HashNode) are resolved lazily and Commit
persists modified nodes via a NodeUpdater.
*/
package mpt
