package stats

// StatsResponse is the snapshot rendered by the stats cards
type StatsResponse struct {
	PendingCount   int64  `json:"pendingCount"`
	ApprovedCount  int64  `json:"approvedCount"`
	RejectedCount  int64  `json:"rejectedCount"`
	TotalLeaves    int64  `json:"totalLeaves"` // pending + approved + rejected
	UserCount      int64  `json:"userCount"`
	BalancesAdded  int64  `json:"balancesAdded"`  // ledgers opened for Year
	UpcomingLeaves int64  `json:"upcomingLeaves"` // approved, starting today or later
	Year           string `json:"year"`
	UpdatedAt      string `json:"updatedAt"`
}
