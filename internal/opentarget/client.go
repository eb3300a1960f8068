// Package opentarget はOpen Targets Platform GraphQL APIのクライアントを提供する。
// 遺伝子名・疾患名のID解決と、IDペアに対するエビデンス取得を含む。
package opentarget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/geneva/internal/model"
)

// defaultEndpoint はOpen Targets Platform GraphQL APIのエンドポイント。
const defaultEndpoint = "https://api.platform.opentargets.org/api/v4/graphql"

// Client はOpen Targets GraphQL APIのクライアント。
// 3種類のクエリ（遺伝子検索・疾患検索・エビデンス取得）を
// 1つのクエリ実行プリミティブで発行する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
// endpointが空の場合はOpen Targets公式エンドポイントを使用する。
func NewClient(httpClient *http.Client, logger *slog.Logger, endpoint string) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   endpoint,
	}
}

// graphqlRequest はGraphQLリクエストボディを表す。
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// graphqlResponse はGraphQLレスポンスのdataエンベロープを表す。
type graphqlResponse struct {
	Data json.RawMessage `json:"data"`
}

// searchResult は検索クエリのdata部の形を表す。
type searchResult struct {
	Search struct {
		Hits []struct {
			ID string `json:"id"`
		} `json:"hits"`
	} `json:"search"`
}

// evidenceResult はエビデンスクエリのdata部の形を表す。
// data.disease全体はAssociation.Rawとして元のまま保持し、
// 構造的に利用するフィールドのみをここでパースする。
type evidenceResult struct {
	Disease json.RawMessage `json:"disease"`
}

type diseasePayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Evidences struct {
		Count int `json:"count"`
	} `json:"evidences"`
}

// runQuery はGraphQLクエリを1回発行し、dataエンベロープの中身を返す。
// 非2xxステータスと接続失敗はUPSTREAM_ERRORとして返す。リトライは行わない。
func (c *Client) runQuery(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("GraphQLリクエストのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Open Targets APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Open Targets APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, model.NewUpstreamError(fmt.Sprintf("Open Targets APIがステータス %d を返しました", resp.StatusCode))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewUpstreamError(fmt.Sprintf("レスポンスボディの読み取りに失敗しました: %v", err))
	}

	var envelope graphqlResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		c.logger.Error("Open Targets APIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamError(fmt.Sprintf("レスポンスJSONのパースに失敗しました: %v", err))
	}

	return envelope.Data, nil
}

// resolveID は名前検索を実行し、先頭ヒットのIDを返す。
// ヒットが0件の場合はLOOKUP_NO_HITSエラーを返す。
func (c *Client) resolveID(ctx context.Context, query, kind, name string) (string, error) {
	data, err := c.runQuery(ctx, query, map[string]any{"queryString": name})
	if err != nil {
		return "", err
	}

	var result searchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return "", model.NewUpstreamError(fmt.Sprintf("検索レスポンスのパースに失敗しました: %v", err))
	}

	if len(result.Search.Hits) == 0 {
		return "", model.NewLookupNoHitsError(kind, name)
	}

	return result.Search.Hits[0].ID, nil
}

// FetchAssociation は遺伝子名と疾患名からアソシエーションレコードを取得する。
// 遺伝子ID解決 → 疾患ID解決 → エビデンス取得の3呼び出しを順に実行する。
// いずれかの名前解決が0件ならLOOKUP_NO_HITS、接続失敗・非2xxならUPSTREAM_ERRORを返す。
func (c *Client) FetchAssociation(ctx context.Context, geneName, diseaseName string) (*model.Association, error) {
	geneID, err := c.resolveID(ctx, geneQuery, "gene", geneName)
	if err != nil {
		return nil, err
	}

	diseaseID, err := c.resolveID(ctx, diseaseQuery, "disease", diseaseName)
	if err != nil {
		return nil, err
	}

	data, err := c.runQuery(ctx, targetDiseaseQuery, map[string]any{
		"geneId":    geneID,
		"diseaseId": diseaseID,
	})
	if err != nil {
		return nil, err
	}

	var result evidenceResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, model.NewUpstreamError(fmt.Sprintf("エビデンスレスポンスのパースに失敗しました: %v", err))
	}

	assoc := &model.Association{Raw: result.Disease}

	// 構造化フィールドはベストエフォートでパースする（欠けていてもRawは保持される）
	var payload diseasePayload
	if err := json.Unmarshal(result.Disease, &payload); err == nil {
		assoc.DiseaseID = payload.ID
		assoc.DiseaseName = payload.Name
		assoc.EvidenceCount = payload.Evidences.Count
	}

	c.logger.Info("アソシエーションを取得しました",
		slog.String("gene_id", geneID),
		slog.String("disease_id", diseaseID),
		slog.Int("evidence_count", assoc.EvidenceCount),
	)

	return assoc, nil
}
