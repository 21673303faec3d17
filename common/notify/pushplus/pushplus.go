package pushplus

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const api = "https://www.pushplus.plus/send/"

type PushPlus struct {
	Token   string
	API     string
	Timeout time.Duration
}

type pushPlusResp struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (p *PushPlus) Webhook(title string, content string) error {
	url := p.API
	if url == "" {
		url = api
	}

	cli := resty.New().SetRetryCount(3)
	if p.Timeout > 0 {
		cli.SetTimeout(p.Timeout)
	}

	rtn := &pushPlusResp{}
	resp, err := cli.R().SetResult(rtn).SetBody(map[string]string{
		"token":   p.Token,
		"title":   title,
		"content": content,
	}).ForceContentType("application/json").Post(url)
	if err != nil {
		return err
	}

	switch rtn.Code {
	case 0:
		return fmt.Errorf("[PushPlus] %s", resp.String())
	case 200:
		return nil
	default:
		return fmt.Errorf("[PushPlus] %s", rtn.Msg)
	}
}
