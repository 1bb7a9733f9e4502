package types

// TrendingEntry - One row of a trending/hot-search list
type TrendingEntry struct {
	Rank     int    `json:"rank"`
	Word     string `json:"word"`
	HotValue int64  `json:"hot_value"`
	Label    string `json:"label"`
	CoverURL string `json:"cover_url"`
}

// VideoResult - One video from a keyword search
type VideoResult struct {
	Rank         int    `json:"rank"`
	AwemeID      string `json:"aweme_id"`
	Desc         string `json:"desc"`
	Author       string `json:"author"`
	AuthorID     string `json:"author_id"`
	CoverURL     string `json:"cover_url"`
	PlayCount    int64  `json:"play_count"`
	DiggCount    int64  `json:"digg_count"`
	CommentCount int64  `json:"comment_count"`
	ShareCount   int64  `json:"share_count"`
	CreateDate   string `json:"create_date"`
}

// Profile - Creator profile
type Profile struct {
	Nickname       string `json:"nickname"`
	UniqueID       string `json:"unique_id"`
	UID            string `json:"uid"`
	Signature      string `json:"signature"`
	AvatarURL      string `json:"avatar_url"`
	FollowerCount  int64  `json:"follower_count"`
	FollowingCount int64  `json:"following_count"`
	AwemeCount     int64  `json:"aweme_count"`
	TotalFavorited int64  `json:"total_favorited"`
	Verified       string `json:"verified"`
	Region         string `json:"region"`
}
