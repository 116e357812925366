package chain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// FormatUnits renders an integer amount scaled down by decimals, exactly.
func FormatUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// FormatEther renders a wei amount in whole native units.
func FormatEther(wei *big.Int) string { return FormatUnits(wei, 18) }

// WeiToGwei renders a wei amount in gwei.
func WeiToGwei(wei *big.Int) string { return FormatUnits(wei, 9) }
