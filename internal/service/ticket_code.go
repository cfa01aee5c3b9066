package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// codeAlphabet deliberately contains only consonants so that generated
// codes cannot spell words, and leaves out letters that are easily
// confused when read aloud or copied from a printout.
const codeAlphabet = "BCDFGHJKLMNPQRSTVWXYZ"

// codeLength is the number of characters in a ticket code.
const codeLength = 5

// GenerateTicketCode draws codeLength distinct characters from the code
// alphabet. Generated codes are not necessarily unique; callers must
// check against the codes they have already handed out.
func GenerateTicketCode() (string, error) {
	pool := []byte(codeAlphabet)
	code := make([]byte, codeLength)
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
		if err != nil {
			return "", fmt.Errorf("generate ticket code: %w", err)
		}
		j := int(n.Int64())
		code[i] = pool[j]
		pool = append(pool[:j], pool[j+1:]...)
	}
	return string(code), nil
}

// generateTicketCodeNotIn generates codes until one is found that is
// not in the excluded set. With 21^5 possible draws per position set,
// collisions within a batch are rare and the loop terminates quickly.
func generateTicketCodeNotIn(excluded map[string]struct{}) (string, error) {
	for {
		code, err := GenerateTicketCode()
		if err != nil {
			return "", err
		}
		if _, taken := excluded[code]; !taken {
			return code, nil
		}
	}
}
