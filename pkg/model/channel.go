package model

// Redis keys shared by every process.
const (
	// OrderChannel is the list the API pushes order messages onto.
	OrderChannel = "orders"

	// UserChannel is the list user-scoped queries are pushed onto.
	UserChannel = "user"

	// DBChannel is the list the engine pushes persistence messages onto.
	DBChannel = "db_filler"
)

// TradeTopic is the pub/sub topic for a market's trade ticks.
func TradeTopic(market string) string {
	return "trade@" + market
}

// DepthTopic is the pub/sub topic for a market's incremental depth updates.
func DepthTopic(market string) string {
	return "depth@" + market
}
