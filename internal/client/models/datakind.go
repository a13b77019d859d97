package models

// DataKind names one per-user cached collection.
type DataKind string

// Adding a per-user data kind anywhere in the app means adding it here too;
// purge and reload only ever touch the kinds listed in AllDataKinds.
const (
	KindHistory       DataKind = "history"
	KindRewardsLedger DataKind = "rewards-ledger"
	KindSocialGraph   DataKind = "social-graph"
	KindAchievements  DataKind = "achievements"
	KindPreferences   DataKind = "preferences"
	KindProfile       DataKind = "profile"
	KindOwnerStats    DataKind = "owner-stats"
	KindStreak        DataKind = "streak"
	KindCityState     DataKind = "city-state"
	KindDescription   DataKind = "description"
)

var AllDataKinds = []DataKind{
	KindHistory,
	KindRewardsLedger,
	KindSocialGraph,
	KindAchievements,
	KindPreferences,
	KindProfile,
	KindOwnerStats,
	KindStreak,
	KindCityState,
	KindDescription,
}

func (k DataKind) Valid() bool {
	for _, known := range AllDataKinds {
		if k == known {
			return true
		}
	}
	return false
}
