package catalog

import (
	"github.com/cnosuke/mcp-upstream/config"
	"github.com/cnosuke/mcp-upstream/normalize"
	"github.com/cnosuke/mcp-upstream/probe"
	"github.com/cnosuke/mcp-upstream/runner"
	"github.com/cnosuke/mcp-upstream/types"
)

var trendingEndpoints = []endpoint{
	{id: "app_v3_hot_search", path: "/api/v1/douyin/app/v3/fetch_hot_search_list"},
	{id: "web_hot_search", path: "/api/v1/douyin/web/fetch_hot_search_result"},
}

var searchEndpoints = []endpoint{
	{id: "web_video_search", path: "/api/v1/douyin/web/fetch_video_search_result?keyword={keyword}&count={count}&offset=0&sort_type=0&publish_time=0"},
	{id: "app_v3_video_search", path: "/api/v1/douyin/app/v3/fetch_video_search_result?keyword={keyword}&count={count}"},
	{id: "app_v3_general_search", path: "/api/v1/douyin/app/v3/fetch_search_result?keyword={keyword}&count={count}"},
}

var userInfoEndpoints = []endpoint{
	{id: "app_v3_user_info", path: "/api/v1/douyin/app/v3/fetch_user_info?unique_id={unique_id}"},
}

// TrendingExtraction reads hot-search lists. The nested data.data holder is
// tried first; some variants wrap the list one level deeper under a key that
// changes between releases, which the object scan covers.
var TrendingExtraction = runner.Extraction[types.TrendingEntry]{
	Lists: probe.Paths("data.data", "data.word_list", "data.sentence_list", "data.list"),
	Fields: normalize.FieldMap[types.TrendingEntry]{
		Fields: []normalize.Field[types.TrendingEntry]{
			normalize.String(func(e *types.TrendingEntry) *string { return &e.Word },
				"word", "sentence", "hot_value_desc", "title", "name", "@this"),
			normalize.Int(func(e *types.TrendingEntry) *int64 { return &e.HotValue },
				"hot_value", "event_count", "hot_score", "score"),
			normalize.String(func(e *types.TrendingEntry) *string { return &e.Label },
				"label_name", "sentence_label", "label", "tag"),
			normalize.String(func(e *types.TrendingEntry) *string { return &e.CoverURL },
				"cover_url", "cover.url_list.0", "word_cover.url_list.0"),
		},
		Position: func(e *types.TrendingEntry, i int) { e.Rank = i },
	},
	Keep: func(e types.TrendingEntry) bool { return e.Word != "" },
}

// SearchExtraction reads video search results. General search wraps each
// video in business_data[].aweme_info; other variants list videos directly.
var SearchExtraction = runner.Extraction[types.VideoResult]{
	Lists: probe.Paths("data.aweme_list", "data.data", "data.business_data.#.aweme_info"),
	Fields: normalize.FieldMap[types.VideoResult]{
		Root: []string{"aweme_info"},
		Fields: []normalize.Field[types.VideoResult]{
			normalize.String(func(v *types.VideoResult) *string { return &v.AwemeID }, "aweme_id", "id"),
			normalize.String(func(v *types.VideoResult) *string { return &v.Desc }, "desc", "title"),
			normalize.String(func(v *types.VideoResult) *string { return &v.Author }, "author.nickname", "author.name"),
			normalize.String(func(v *types.VideoResult) *string { return &v.AuthorID }, "author.unique_id", "author.uid"),
			normalize.String(func(v *types.VideoResult) *string { return &v.CoverURL }, "video.cover.url_list.0", "cover_url"),
			normalize.Int(func(v *types.VideoResult) *int64 { return &v.PlayCount },
				"statistics.play_count", "statistics.playCount", "stats.play_count", "stats.playCount"),
			normalize.Int(func(v *types.VideoResult) *int64 { return &v.DiggCount },
				"statistics.digg_count", "statistics.like_count", "stats.digg_count", "stats.like_count"),
			normalize.Int(func(v *types.VideoResult) *int64 { return &v.CommentCount },
				"statistics.comment_count", "stats.comment_count"),
			normalize.Int(func(v *types.VideoResult) *int64 { return &v.ShareCount },
				"statistics.share_count", "stats.share_count"),
			normalize.Date(func(v *types.VideoResult) *string { return &v.CreateDate }, "create_time"),
		},
		Position: func(v *types.VideoResult, i int) { v.Rank = i },
	},
	Keep: func(v types.VideoResult) bool { return v.AwemeID != "" || v.Desc != "" },
}

// ProfileExtraction reads a single user object.
var ProfileExtraction = runner.Extraction[types.Profile]{
	Lists: []probe.Path{
		{Expr: "data.user", Single: true},
		{Expr: "data", Single: true},
	},
	Fields: normalize.FieldMap[types.Profile]{
		Fields: []normalize.Field[types.Profile]{
			normalize.String(func(p *types.Profile) *string { return &p.Nickname }, "nickname"),
			normalize.String(func(p *types.Profile) *string { return &p.UniqueID }, "unique_id"),
			normalize.String(func(p *types.Profile) *string { return &p.UID }, "uid"),
			normalize.String(func(p *types.Profile) *string { return &p.Signature }, "signature"),
			normalize.String(func(p *types.Profile) *string { return &p.AvatarURL }, "avatar_thumb.url_list.0", "avatar_url"),
			normalize.Int(func(p *types.Profile) *int64 { return &p.FollowerCount }, "follower_count", "fans_count"),
			normalize.Int(func(p *types.Profile) *int64 { return &p.FollowingCount }, "following_count"),
			normalize.Int(func(p *types.Profile) *int64 { return &p.AwemeCount }, "aweme_count", "video_count"),
			normalize.Int(func(p *types.Profile) *int64 { return &p.TotalFavorited }, "total_favorited", "like_count"),
			normalize.String(func(p *types.Profile) *string { return &p.Verified }, "custom_verify", "enterprise_verify_reason"),
			normalize.String(func(p *types.Profile) *string { return &p.Region }, "region", "country"),
		},
	},
	Keep: func(p types.Profile) bool { return p.Nickname != "" || p.UID != "" },
}

// Trending - Hot-search list
func Trending(cfg *config.Config) Operation[types.TrendingEntry] {
	return build(cfg, OpTrending, cfg.Operations.Trending, trendingEndpoints, types.StrategySequential, TrendingExtraction)
}

// Search - Keyword video search
func Search(cfg *config.Config) Operation[types.VideoResult] {
	return build(cfg, OpSearch, cfg.Operations.Search, searchEndpoints, types.StrategySequential, SearchExtraction)
}

// UserInfo - Creator profile by unique id
func UserInfo(cfg *config.Config) Operation[types.Profile] {
	return build(cfg, OpUserInfo, cfg.Operations.UserInfo, userInfoEndpoints, types.StrategySequential, ProfileExtraction)
}

// Diagnose races every search candidate so each one reports its own outcome.
func Diagnose(cfg *config.Config) Operation[types.VideoResult] {
	op := build(cfg, OpDiagnose, cfg.Operations.Diagnose, searchEndpoints, types.StrategyParallel, SearchExtraction)
	if len(cfg.Operations.Diagnose.Candidates) == 0 && len(cfg.Operations.Search.Candidates) > 0 {
		op.Candidates = Search(cfg).Candidates
	}
	return op
}

// DiagnoseTrending covers the hot-search family in a diagnose run. It uses
// the diagnose strategy and timeout with the trending candidate list.
func DiagnoseTrending(cfg *config.Config) Operation[types.TrendingEntry] {
	opCfg := cfg.Operations.Diagnose
	opCfg.Candidates = cfg.Operations.Trending.Candidates
	return build(cfg, OpDiagnose, opCfg, trendingEndpoints, types.StrategyParallel, TrendingExtraction)
}
