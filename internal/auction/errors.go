package auction

import "errors"

// Errors returned by engine commands. Collaborator failures are wrapped
// rather than listed here, so store.ErrInsufficientBalance and
// store.ErrNotAllowedToList surface unchanged through errors.Is.
var (
	ErrAuctionCannotStartInThePast                  = errors.New("auction cannot start in the past")
	ErrAuctionCannotEndBeforeItHasStarted           = errors.New("auction cannot end before it has started")
	ErrAuctionDurationIsTooLong                     = errors.New("auction duration is too long")
	ErrAuctionDurationIsTooShort                    = errors.New("auction duration is too short")
	ErrAuctionStartIsTooFarAway                     = errors.New("auction start is too far away")
	ErrBuyItPriceCannotBeLowerOrEqualThanStartPrice = errors.New("buy it price cannot be lower or equal than start price")
	ErrNFTDoesNotExist                              = errors.New("nft does not exist")
	ErrCannotAuctionNotOwnedNFTs                    = errors.New("cannot auction nfts you do not own")
	ErrCannotAuctionNFTsListedForSale               = errors.New("cannot auction nfts listed for sale")
	ErrCannotAuctionNFTsInTransmission              = errors.New("cannot auction nfts in transmission")
	ErrCannotAuctionCapsules                        = errors.New("cannot auction capsules")
	ErrCannotAuctionLentNFTs                        = errors.New("cannot auction lent nfts")
	ErrCannotAuctionNFTsInUncompletedSeries         = errors.New("cannot auction nfts in uncompleted series")
	ErrMaximumAuctionsLimitReached                  = errors.New("maximum number of parallel auctions reached")
	ErrMarketplaceNotFound                          = errors.New("marketplace not found")

	ErrAuctionDoesNotExist                       = errors.New("auction does not exist")
	ErrNotTheAuctionCreator                      = errors.New("not the auction creator")
	ErrCannotCancelAuctionInProgress             = errors.New("cannot cancel auction in progress")
	ErrCannotEndAuctionThatWasNotExtended        = errors.New("cannot end auction that was not extended")
	ErrCannotAddBidToYourOwnAuctions             = errors.New("cannot add bid to your own auctions")
	ErrAuctionNotStarted                         = errors.New("auction not started")
	ErrCannotBidLessThanTheHighestBid            = errors.New("cannot bid less than or equal to the highest bid")
	ErrCannotBidLessThanTheStartingPrice         = errors.New("cannot bid less than or equal to the starting price")
	ErrCannotRemoveBidAtTheEndOfAuction          = errors.New("cannot remove bid at the end of auction")
	ErrBidDoesNotExist                           = errors.New("bid does not exist")
	ErrAuctionDoesNotSupportBuyItNow             = errors.New("auction does not support buy it now")
	ErrCannotBuyItWhenABidIsHigherThanBuyItPrice = errors.New("cannot buy it when a bid is higher than or equal to the buy it price")
	ErrCannotBuyItNowToYourOwnAuctions           = errors.New("cannot buy it now to your own auctions")
	ErrClaimDoesNotExist                         = errors.New("claim does not exist")
)
