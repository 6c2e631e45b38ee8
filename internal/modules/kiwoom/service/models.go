package service

// Формат кадров брокерского WebSocket: поле trnm различает тип,
// PING обязателен к эхо-ответу тем же телом.

type frameHead struct {
	Trnm       string `json:"trnm"`
	ReturnCode int    `json:"return_code"`
	ReturnMsg  string `json:"return_msg"`
}

type loginRequest struct {
	Trnm  string `json:"trnm"` // "LOGIN"
	Token string `json:"token"`
}

type conditionListRequest struct {
	Trnm string `json:"trnm"` // "CNSRLST"
}

// data: пары [seq, имя]
type conditionListResponse struct {
	Trnm       string     `json:"trnm"`
	ReturnCode int        `json:"return_code"`
	ReturnMsg  string     `json:"return_msg"`
	Data       [][]string `json:"data"`
}

type conditionScanRequest struct {
	Trnm       string `json:"trnm"` // "CNSRREQ"
	Seq        string `json:"seq"`
	SearchType string `json:"search_type"` // "0" — разовый запрос
	StexTp     string `json:"stex_tp"`
	ContYn     string `json:"cont_yn"`
	NextKey    string `json:"next_key"`
}

// поля строк идут под числовыми кодами брокера
type conditionScanResponse struct {
	Trnm       string              `json:"trnm"`
	ReturnCode int                 `json:"return_code"`
	ReturnMsg  string              `json:"return_msg"`
	ContYn     string              `json:"cont_yn"`
	NextKey    string              `json:"next_key"`
	Data       []map[string]string `json:"data"`
}

const (
	fieldCode    = "9001"
	fieldName    = "302"
	fieldCurrent = "10"
	fieldChange  = "11"
	fieldRate    = "12"
	fieldVolume  = "13"
)

type tokenRequest struct {
	GrantType string `json:"grant_type"`
	AppKey    string `json:"appkey"`
	SecretKey string `json:"secretkey"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type candleRequest struct {
	StkCd      string `json:"stk_cd"`
	BaseDt     string `json:"base_dt"`
	UpdStkpcTp string `json:"upd_stkpc_tp"` // "1" — скорректированные цены
}

type candleRow struct {
	Dt       string `json:"dt"` // YYYYMMDD
	OpenPric string `json:"open_pric"`
	HighPric string `json:"high_pric"`
	LowPric  string `json:"low_pric"`
	CurPrc   string `json:"cur_prc"`
	TrdeQty  string `json:"trde_qty"`
}

type candleResponse struct {
	Rows []candleRow `json:"stk_dt_pole_chart_qry"`
}
