package share

import (
	"TianHe-LiveSim/model"
	"TianHe-LiveSim/protocol"
	"TianHe-LiveSim/utils"

	"github.com/skip2/go-qrcode"
)

// Code 进房链接二维码
type Code struct {
	URL string
	qr  *qrcode.QRCode
}

// New 为进房参数生成二维码
func New(base string, params model.EntryParams) (*Code, error) {
	entryURL, err := protocol.EncodeEntry(base, params)
	if err != nil {
		return nil, err
	}

	qr, err := qrcode.New(entryURL, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	return &Code{URL: entryURL, qr: qr}, nil
}

// WritePNG 保存为PNG文件
func (c *Code) WritePNG(path string, size int) error {
	f, err := utils.CreateFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := c.qr.Write(size, f); err != nil {
		return err
	}
	utils.Logger.Infof("二维码已保存到 %s", path)
	return nil
}

// Terminal 终端显示用的二维码
func (c *Code) Terminal() string {
	return c.qr.ToSmallString(false)
}
