package polygon

// aggsResponse covers both /prev and /range aggregate payloads.
type aggsResponse struct {
	Ticker       string `json:"ticker"`
	Status       string `json:"status"`
	ResultsCount int    `json:"resultsCount"`
	Results      []agg  `json:"results"`
	Error        string `json:"error"`
}

type agg struct {
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
	Timestamp int64   `json:"t"`
}

type snapshotResponse struct {
	Status string         `json:"status"`
	Ticker snapshotTicker `json:"ticker"`
}

type snapshotTicker struct {
	Ticker        string  `json:"ticker"`
	Name          string  `json:"name"`
	MarketCap     float64 `json:"market_cap"`
	PERatio       float64 `json:"pe_ratio"`
	DividendYield float64 `json:"dividend_yield"`
	Day           agg     `json:"day"`
}

type referenceResponse struct {
	Status  string          `json:"status"`
	Results referenceTicker `json:"results"`
}

type referenceTicker struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	MarketCap float64 `json:"market_cap"`
}

type newsResponse struct {
	Status  string        `json:"status"`
	Results []newsArticle `json:"results"`
}

type newsArticle struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	PublishedUTC string    `json:"published_utc"`
	ArticleURL   string    `json:"article_url"`
	Description  string    `json:"description"`
	Keywords     []string  `json:"keywords"`
	Tickers      []string  `json:"tickers"`
	Publisher    publisher `json:"publisher"`
	Insights     []insight `json:"insights"`
}

type publisher struct {
	Name string `json:"name"`
}

type insight struct {
	Ticker             string `json:"ticker"`
	Sentiment          string `json:"sentiment"`
	SentimentReasoning string `json:"sentiment_reasoning"`
}
