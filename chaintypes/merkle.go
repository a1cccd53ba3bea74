package chaintypes

import "crypto/sha256"

// TransactionMerkleRoot computes the root of a simple binary Merkle tree
// over transaction ids, in order. An empty block's root is the all-zero
// hash. The controller only needs the root to compare against a block
// header's TransactionMRoot; the tree shape itself is not exposed.
func TransactionMerkleRoot(ids []TransactionID) []byte {
	if len(ids) == 0 {
		return make([]byte, sha256.Size)
	}
	layer := make([][]byte, len(ids))
	for i, id := range ids {
		idCopy := id
		layer[i] = idCopy[:]
	}
	for len(layer) > 1 {
		var next [][]byte
		for i := 0; i < len(layer); i += 2 {
			if i+1 == len(layer) {
				next = append(next, hashPair(layer[i], layer[i]))
			} else {
				next = append(next, hashPair(layer[i], layer[i+1]))
			}
		}
		layer = next
	}
	return layer[0]
}

func hashPair(a, b []byte) []byte {
	h := sha256.New()
	h.Write(a)
	h.Write(b)
	return h.Sum(nil)
}
