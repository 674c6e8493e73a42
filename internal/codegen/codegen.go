package codegen

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ErrCodeGeneration is returned when a unique code could not be established
// within the attempt bound.
var ErrCodeGeneration = errors.New("failed to generate a unique code")

const (
	maxAttempts   = 5
	txCodePrefix  = "TRX"
	barcodePrefix = "899" // GS1 prefix used for internally issued barcodes
	alnum         = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	digits        = "0123456789"
)

// ExistsFunc probes storage for a candidate code. It must reflect committed
// state; the database unique index remains the final backstop for races
// between the probe and the insert.
type ExistsFunc func(code string) (bool, error)

// Generator produces globally unique transaction codes and product barcodes.
// Candidates combine a timestamp with a random suffix, so collisions are
// only possible under sub-second bursts and are resolved by bounded retry.
type Generator struct {
	txExists      ExistsFunc
	barcodeExists ExistsFunc
	now           func() time.Time
}

func New(txExists, barcodeExists ExistsFunc) *Generator {
	return &Generator{
		txExists:      txExists,
		barcodeExists: barcodeExists,
		now:           time.Now,
	}
}

// TransactionCode returns a code of the form TRX-20060102150405-XXXX.
func (g *Generator) TransactionCode() (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code := fmt.Sprintf("%s-%s-%s", txCodePrefix, g.now().Format("20060102150405"), randomString(alnum, 4))
		exists, err := g.txExists(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeGeneration
}

// Barcode returns a 13-digit barcode with a fixed prefix and random body.
func (g *Generator) Barcode() (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		barcode := barcodePrefix + randomString(digits, 10)
		exists, err := g.barcodeExists(barcode)
		if err != nil {
			return "", err
		}
		if !exists {
			return barcode, nil
		}
	}
	return "", ErrCodeGeneration
}

func randomString(charset string, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
