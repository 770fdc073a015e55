package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin"
)

// cliArgs 命令行参数
type cliArgs struct {
	conf     string
	envFiles []string
	debug    bool

	probeFile  string
	probeQuery string
	probeChunk int
	probeStore bool

	watchFile   string
	watchListen string

	initOutput string
	initForce  bool
}

func newApp(args *cliArgs, out io.Writer) *kingpin.Application {
	app := kingpin.New("flvdemux", "Incremental FLV demuxer: probe recordings and watch growing files.")
	app.Flag("config", "配置文件路径").Short('c').StringVar(&args.conf)
	app.Flag("env-file", "额外读取的 .env 文件，可重复指定").Default(".env").StringsVar(&args.envFiles)
	app.Flag("debug", "输出 debug 日志").BoolVar(&args.debug)

	probeCmd := app.Command("probe", "解析 FLV 文件并输出 JSON 汇总")
	probeCmd.Arg("file", "FLV 文件").Required().ExistingFileVar(&args.probeFile)
	probeCmd.Flag("query", "gjson 路径，只输出汇总中的该字段，如 video.codec").Short('q').StringVar(&args.probeQuery)
	probeCmd.Flag("chunk", "每次读取的字节数，默认取配置中的 demux.read_chunk_size").IntVar(&args.probeChunk)
	probeCmd.Flag("store", "使用 SQLite 缓存探测结果").BoolVar(&args.probeStore)
	probeCmd.Action(func(*kingpin.ParseContext) error {
		return withConfig(args, func(ctx context.Context, env *appEnv) error {
			return runProbe(ctx, env, probeOptions{
				File:  args.probeFile,
				Query: args.probeQuery,
				Chunk: args.probeChunk,
				Store: args.probeStore,
			}, out)
		})
	})

	watchCmd := app.Command("watch", "跟随一个仍在写入的 FLV 文件，并提供 /api/info 与 /metrics")
	watchCmd.Arg("file", "FLV 文件").Required().ExistingFileVar(&args.watchFile)
	watchCmd.Flag("listen", "HTTP 监听地址，默认取配置中的 metrics.bind").StringVar(&args.watchListen)
	watchCmd.Action(func(*kingpin.ParseContext) error {
		return withConfig(args, func(ctx context.Context, env *appEnv) error {
			return runWatch(ctx, env, args.watchFile, args.watchListen)
		})
	})

	configCmd := app.Command("config", "配置文件相关操作")
	initCmd := configCmd.Command("init", "生成带注释的默认配置文件")
	initCmd.Arg("output", "输出路径").Default("config.yml").StringVar(&args.initOutput)
	initCmd.Flag("force", "覆盖已存在的文件").BoolVar(&args.initForce)
	initCmd.Action(func(*kingpin.ParseContext) error {
		return initConfig(args.initOutput, args.initForce, out)
	})

	cacheCmd := app.Command("cache", "探测结果缓存")
	cacheCmd.Command("list", "列出缓存的文件").Action(func(*kingpin.ParseContext) error {
		return withConfig(args, func(ctx context.Context, env *appEnv) error {
			return listCache(ctx, env, out)
		})
	})
	cacheCmd.Command("clear", "清空缓存").Action(func(*kingpin.ParseContext) error {
		return withConfig(args, func(ctx context.Context, env *appEnv) error {
			return clearCache(ctx, env, out)
		})
	})

	return app
}

// RunCmd 解析命令行并执行，返回进程退出码
func RunCmd(argv []string) int {
	return runWithOutput(argv, os.Stdout, os.Stderr)
}

func runWithOutput(argv []string, out, errOut io.Writer) int {
	args := &cliArgs{}
	app := newApp(args, out)
	if _, err := app.Parse(argv); err != nil {
		fmt.Fprintf(errOut, "flvdemux: %s\n", err)
		return 1
	}
	return 0
}

// withConfig 加载配置、初始化日志，并在收到退出信号时取消 ctx
func withConfig(args *cliArgs, fn func(ctx context.Context, env *appEnv) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := newAppEnv(ctx, args.conf, args.envFiles, args.debug)
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(ctx, env)
}
