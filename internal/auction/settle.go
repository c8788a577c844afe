package auction

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// splitCommission divides a sale price between the marketplace and the seller.
// The marketplace share is price*fee/100 rounded down; the seller gets the rest.
func splitCommission(price Balance, fee uint8) (toMarketplace, toSeller Balance) {
	share := decimal.NewFromBigInt(new(big.Int).SetUint64(price), 0).
		Mul(decimal.NewFromInt(int64(fee))).
		Div(hundred).
		Floor()
	toMarketplace = share.BigInt().Uint64()
	return toMarketplace, price - toMarketplace
}
