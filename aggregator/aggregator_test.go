package aggregator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cnosuke/mcp-upstream/config"
	"github.com/cnosuke/mcp-upstream/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upstream is a fake TikHub-like API keyed by path.
type upstream struct {
	mu      sync.Mutex
	routes  map[string]func(w http.ResponseWriter, r *http.Request)
	queries map[string]string
}

func startUpstream(t *testing.T) (*upstream, *httptest.Server) {
	t.Helper()
	u := &upstream{
		routes:  map[string]func(http.ResponseWriter, *http.Request){},
		queries: map[string]string{},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.queries[r.URL.Path] = r.URL.RawQuery
		h, ok := u.routes[r.URL.Path]
		u.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":401,"message":"Invalid token"}`))
			return
		}
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(server.Close)
	return u, server
}

func (u *upstream) json(path string, status int, body string) {
	u.routes[path] = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func newTestService(t *testing.T, baseURL string) *Service {
	t.Helper()
	cfg := &config.Config{}
	cfg.Upstream.BaseURL = baseURL
	cfg.Upstream.AuthHeader = "Authorization"
	cfg.Upstream.AuthScheme = "Bearer"
	cfg.Upstream.UserAgent = "test-agent/1.0"
	cfg.Fetch.Timeout = 5
	cfg.Fetch.MaxAttempts = 1
	s, err := NewHTTPService(cfg)
	require.NoError(t, err)
	return s
}

const (
	pathHotApp     = "/api/v1/douyin/app/v3/fetch_hot_search_list"
	pathHotWeb     = "/api/v1/douyin/web/fetch_hot_search_result"
	pathSearchWeb  = "/api/v1/douyin/web/fetch_video_search_result"
	pathSearchApp  = "/api/v1/douyin/app/v3/fetch_video_search_result"
	pathSearchAll  = "/api/v1/douyin/app/v3/fetch_search_result"
	pathUserInfo   = "/api/v1/douyin/app/v3/fetch_user_info"
	generalPayload = `{"code":200,"data":{"business_data":[
		{"type":1,"aweme_info":{"aweme_id":"v1","desc":"first","author":{"nickname":"ann","unique_id":"ann01"},
			"video":{"cover":{"url_list":["https://img/1.jpg"]}},
			"statistics":{"play_count":"1200","digg_count":34,"comment_count":5,"share_count":"x"},"create_time":1700000000}},
		{"type":999,"card":{}},
		{"type":1,"aweme_info":{"aweme_id":"v2","desc":"second","author":{"name":"bob","uid":"42"},"cover_url":"https://img/2.jpg",
			"stats":{"playCount":7,"like_count":"3"}}}
	]}}`
)

func TestService_Trending(t *testing.T) {
	u, server := startUpstream(t)
	u.json(pathHotApp, http.StatusOK, `{"code":200,"data":{"data":{"active_time":"x","word_list":[
		{"word":"topic one","hot_value":9876,"label_name":"hot","word_cover":{"url_list":["https://c/1"]}},
		{"sentence":"topic two","event_count":"55","sentence_label":"new","cover_url":"https://c/2"},
		{"word":""}
	]}}}`)
	s := newTestService(t, server.URL)

	res, err := s.Trending(context.Background(), "good")
	require.NoError(t, err)

	assert.Equal(t, types.StatusData, res.Status)
	assert.Equal(t, "app_v3_hot_search", res.Winner)
	assert.Equal(t, []types.TrendingEntry{
		{Rank: 1, Word: "topic one", HotValue: 9876, Label: "hot", CoverURL: "https://c/1"},
		{Rank: 2, Word: "topic two", HotValue: 55, Label: "new", CoverURL: "https://c/2"},
	}, res.Records)
	assert.Len(t, res.Diagnostics, 1)
}

func TestService_Trending_FallsBackToWeb(t *testing.T) {
	u, server := startUpstream(t)
	u.json(pathHotApp, http.StatusOK, `{"code":200,"data":{"data":[]}}`)
	u.json(pathHotWeb, http.StatusOK, `{"code":200,"data":{"data":{"word_list":["plain one","plain two"]}}}`)
	s := newTestService(t, server.URL)

	res, err := s.Trending(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "web_hot_search", res.Winner)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "plain two", res.Records[1].Word)
	assert.Equal(t, 2, res.Records[1].Rank)
	assert.Equal(t, types.OutcomeEmpty, res.Diagnostics[0].Outcome)
}

func TestService_Trending_AuthRejected(t *testing.T) {
	_, server := startUpstream(t)
	s := newTestService(t, server.URL)

	res, err := s.Trending(context.Background(), "bad")
	require.NoError(t, err)
	assert.Equal(t, types.StatusAuthRejected, res.Status)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "Invalid token", res.Diagnostics[0].Message)
}

func TestService_Search_Fallback(t *testing.T) {
	u, server := startUpstream(t)
	u.json(pathSearchWeb, http.StatusOK, `{"code":400,"message":"Request failed","data":null}`)
	u.json(pathSearchApp, http.StatusInternalServerError, `{"detail":{"message":"upstream busy"}}`)
	u.json(pathSearchAll, http.StatusOK, generalPayload)
	s := newTestService(t, server.URL)

	res, err := s.Search(context.Background(), "good", " 旅行 ", 0)
	require.NoError(t, err)

	assert.Equal(t, types.StatusData, res.Status)
	assert.Equal(t, "app_v3_general_search", res.Winner)
	require.Len(t, res.Diagnostics, 3)
	assert.Equal(t, types.OutcomeEmpty, res.Diagnostics[0].Outcome)
	assert.Equal(t, int64(400), res.Diagnostics[0].UpstreamCode)
	assert.Equal(t, "Request failed", res.Diagnostics[0].Message)
	assert.Equal(t, types.OutcomeHTTPError, res.Diagnostics[1].Outcome)
	assert.Equal(t, "upstream busy", res.Diagnostics[1].Message)

	assert.Equal(t, []types.VideoResult{
		{
			Rank: 1, AwemeID: "v1", Desc: "first", Author: "ann", AuthorID: "ann01",
			CoverURL: "https://img/1.jpg", PlayCount: 1200, DiggCount: 34, CommentCount: 5,
			CreateDate: "2023-11-14",
		},
		{
			Rank: 2, AwemeID: "v2", Desc: "second", Author: "bob", AuthorID: "42",
			CoverURL: "https://img/2.jpg", PlayCount: 7, DiggCount: 3,
		},
	}, res.Records)

	u.mu.Lock()
	defer u.mu.Unlock()
	assert.Equal(t, "keyword=%E6%97%85%E8%A1%8C&count=20", u.queries[pathSearchAll])
}

func TestService_Search_CountClamp(t *testing.T) {
	u, server := startUpstream(t)
	u.json(pathSearchWeb, http.StatusOK, `{"code":200,"data":{"aweme_list":[{"aweme_id":"1"}]}}`)
	s := newTestService(t, server.URL)

	_, err := s.Search(context.Background(), "good", "cats", 500)
	require.NoError(t, err)
	u.mu.Lock()
	defer u.mu.Unlock()
	assert.Contains(t, u.queries[pathSearchWeb], "count=50")
}

func TestService_Search_MissingKeyword(t *testing.T) {
	s := newTestService(t, "http://127.0.0.1:1")
	_, err := s.Search(context.Background(), "good", "  ", 10)
	assert.ErrorIs(t, err, ErrMissingKeyword)
}

func TestService_UserInfo(t *testing.T) {
	u, server := startUpstream(t)
	u.json(pathUserInfo, http.StatusOK, `{"code":200,"data":{"user":{
		"nickname":"Chef Li","uid":"1001","signature":"cooking",
		"avatar_thumb":{"url_list":["https://a/1"]},"fans_count":"3000","following_count":12,
		"video_count":88,"total_favorited":"99999","enterprise_verify_reason":"Brand","country":"CN"}}}`)
	s := newTestService(t, server.URL)

	res, err := s.UserInfo(context.Background(), "good", "chefli")
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, types.Profile{
		Nickname: "Chef Li", UniqueID: "chefli", UID: "1001", Signature: "cooking",
		AvatarURL: "https://a/1", FollowerCount: 3000, FollowingCount: 12, AwemeCount: 88,
		TotalFavorited: 99999, Verified: "Brand", Region: "CN",
	}, res.Records[0])

	u.mu.Lock()
	defer u.mu.Unlock()
	assert.Equal(t, "unique_id=chefli", u.queries[pathUserInfo])
}

func TestService_UserInfo_NotFound(t *testing.T) {
	u, server := startUpstream(t)
	u.json(pathUserInfo, http.StatusOK, `{"code":200,"data":{"user":{},"status_code":0}}`)
	s := newTestService(t, server.URL)

	res, err := s.UserInfo(context.Background(), "good", "nobody")
	require.NoError(t, err)
	assert.Equal(t, types.StatusEmptyNoData, res.Status)
	assert.Empty(t, res.Records)

	_, err = s.UserInfo(context.Background(), "good", "")
	assert.ErrorIs(t, err, ErrMissingUniqueID)
}

func TestService_Diagnose(t *testing.T) {
	u, server := startUpstream(t)
	u.json(pathSearchWeb, http.StatusOK, `{"code":200,"data":{"aweme_list":[],"has_more":0}}`)
	u.json(pathSearchApp, http.StatusOK, `{"code":200,"data":{"aweme_list":[{"aweme_id":"a"},{"aweme_id":"b"}]}}`)
	u.json(pathSearchAll, http.StatusOK, generalPayload)
	u.json(pathHotApp, http.StatusOK, `{"code":200,"data":{"data":[{"word":"hot"}],"trending_list":[],"active_time":"2024"}}`)
	s := newTestService(t, server.URL)

	res, err := s.Diagnose(context.Background(), "good", "")
	require.NoError(t, err)

	assert.Equal(t, types.StrategyParallel, res.Strategy)
	assert.Equal(t, types.StatusData, res.Status)
	assert.Equal(t, "app_v3_video_search", res.Winner)
	require.Len(t, res.Diagnostics, 5)

	ids := make([]string, 0, len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		ids = append(ids, d.CandidateID)
	}
	assert.Equal(t, []string{
		"web_video_search", "app_v3_video_search", "app_v3_general_search",
		"app_v3_hot_search", "web_hot_search",
	}, ids)

	web := res.Diagnostics[0]
	assert.Equal(t, types.OutcomeEmpty, web.Outcome)
	assert.Equal(t, []string{"aweme_list", "has_more"}, web.DataKeys)
	assert.Equal(t, map[string]int{"aweme_list": 0}, web.ListFields)
	assert.Equal(t, `{"aweme_list":[],"has_more":0}`, web.Sample)

	assert.Equal(t, 2, res.Diagnostics[1].ItemCount)
	assert.Equal(t, 2, res.Diagnostics[2].ItemCount)
	assert.Equal(t, []string{"business_data"}, res.Diagnostics[2].DataKeys)
	assert.Equal(t, map[string]int{"business_data": 3}, res.Diagnostics[2].ListFields)

	hot := res.Diagnostics[3]
	assert.Equal(t, types.OutcomeData, hot.Outcome)
	assert.Equal(t, 1, hot.ItemCount)
	assert.Equal(t, []string{"data", "trending_list", "active_time"}, hot.DataKeys)
	assert.Equal(t, map[string]int{"data": 1, "trending_list": 0}, hot.ListFields)

	assert.Equal(t, types.OutcomeHTTPError, res.Diagnostics[4].Outcome)
	assert.Equal(t, http.StatusNotFound, res.Diagnostics[4].HTTPStatus)

	u.mu.Lock()
	defer u.mu.Unlock()
	assert.Equal(t, "keyword=%E7%BE%8E%E9%A3%9F&count=5", u.queries[pathSearchApp])
}

func TestService_Diagnose_NoSearchData(t *testing.T) {
	u, server := startUpstream(t)
	u.json(pathHotApp, http.StatusOK, `{"code":200,"data":{"data":[{"word":"hot"}]}}`)
	s := newTestService(t, server.URL)

	res, err := s.Diagnose(context.Background(), "good", "咖啡")
	require.NoError(t, err)
	assert.Empty(t, res.Winner)
	assert.Empty(t, res.Records)
	assert.Equal(t, types.StatusEmptyNoData, res.Status)
	require.Len(t, res.Diagnostics, 5)
	assert.Equal(t, types.OutcomeData, res.Diagnostics[3].Outcome)
}

func TestService_Credential(t *testing.T) {
	s := newTestService(t, "http://127.0.0.1:1")

	_, err := s.Credential("")
	assert.ErrorIs(t, err, ErrMissingCredential)

	key, err := s.Credential("Bearer abc ")
	require.NoError(t, err)
	assert.Equal(t, "abc", key)

	s.cfg.Upstream.APIKey = "configured"
	key, err = s.Credential(" ")
	require.NoError(t, err)
	assert.Equal(t, "configured", key)
}
