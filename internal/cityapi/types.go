package cityapi

// Resource is one resource holding of an agent, unique per resource type.
type Resource struct {
	ResourceType string `json:"resource_type"`
	Quantity     int    `json:"quantity"`
}

// Agent is one entry of the city overview roster. ID 0 denotes the special
// "human" agent, which never performs economic actions.
type Agent struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Credits   int        `json:"credits"`
	Resources []Resource `json:"resources"`
}

type CityOverview struct {
	City   string  `json:"city"`
	Agents []Agent `json:"agents"`
}

// Job is a daily check-in position. MaxWorkers 0 means unlimited capacity.
type Job struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	DailyReward  int    `json:"daily_reward"`
	MaxWorkers   int    `json:"max_workers"`
	TodayWorkers int    `json:"today_workers"`
}

type ShopItem struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int    `json:"price"`
	ItemType    string `json:"item_type"`
}

type OwnedItem struct {
	ItemID      int    `json:"item_id"`
	Name        string `json:"name"`
	ItemType    string `json:"item_type"`
	PurchasedAt string `json:"purchased_at"`
}

// ActionOutcome is the backend's verdict on a mutating action. Reason is an
// opaque code (or, for transfers, display-ready text); the action-specific
// fields are only populated when the action sets them.
type ActionOutcome struct {
	OK               bool   `json:"ok"`
	Reason           string `json:"reason"`
	Reward           int    `json:"reward"`
	Price            int    `json:"price"`
	RemainingCredits int    `json:"remaining_credits"`
}
