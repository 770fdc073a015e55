package main

import (
	"fmt"
	"io"
	"os"

	"github.com/bililive-go/flvdemux/src/configs"
)

func initConfig(output string, force bool, out io.Writer) error {
	if !force {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("%s 已存在，使用 --force 覆盖", output)
		}
	}
	config := configs.NewConfig()
	config.File = output
	if err := config.Marshal(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "已生成配置文件 %s\n", output)
	return err
}
