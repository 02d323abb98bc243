package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alvesvaren/bombfest/internal/client"
	"github.com/alvesvaren/bombfest/internal/logger"
	"github.com/alvesvaren/bombfest/internal/sound"
	"github.com/alvesvaren/bombfest/internal/ui"
)

func main() {
	serverAddr := flag.String("server", "localhost:3001", "服务器地址")
	name := flag.String("name", "", "玩家昵称")
	flag.Parse()

	if *name == "" {
		fmt.Println("请用 -name 指定昵称")
		os.Exit(1)
	}

	// TUI 占用终端，日志写入 ~/.bombfest/debug.log
	if err := logger.Init(); err != nil {
		log.Printf("初始化日志失败: %v", err)
	}
	defer logger.Close()

	sounds := sound.NewSoundManager()
	if err := sounds.Init(); err != nil {
		logger.LogError("初始化音效失败: %v", err)
	}
	defer sounds.Close()

	cli := client.NewClient(fmt.Sprintf("http://%s", *serverAddr))
	if err := cli.Register(*name); err != nil {
		fmt.Printf("注册失败: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(ui.New(cli, sounds), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("启动客户端时出错: %v", err)
	}
}
