package words

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Prompt 提示片段及包含它的单词数
type Prompt struct {
	Text      string
	WordCount int
}

// dictionary 单一语言的词库
type dictionary struct {
	words   map[string]struct{}
	prompts []Prompt // 按 WordCount 升序
}

// Manager 词库管理器，启动时一次性加载，之后只读
type Manager struct {
	dicts map[string]*dictionary
}

// Load 从目录加载词库
// 每种语言两个文件：<lang>.words（每行一个小写单词）和
// <lang>.prompts（每行 "片段:单词数"）
func Load(dir string, languages []string) (*Manager, error) {
	m := &Manager{dicts: make(map[string]*dictionary)}

	for _, lang := range languages {
		dict, err := loadDictionary(dir, lang)
		if err != nil {
			return nil, fmt.Errorf("加载词库 %s 失败: %w", lang, err)
		}
		m.dicts[lang] = dict
		log.Printf("📚 词库 %s 已加载: %d 个单词, %d 个提示", lang, len(dict.words), len(dict.prompts))
	}

	return m, nil
}

func loadDictionary(dir, lang string) (*dictionary, error) {
	dict := &dictionary{words: make(map[string]struct{})}

	wordsFile, err := os.Open(filepath.Join(dir, lang+".words"))
	if err != nil {
		return nil, err
	}
	defer func() { _ = wordsFile.Close() }()

	scanner := bufio.NewScanner(wordsFile)
	for scanner.Scan() {
		word := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if word != "" {
			dict.words[word] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	promptsFile, err := os.Open(filepath.Join(dir, lang+".prompts"))
	if err != nil {
		return nil, err
	}
	defer func() { _ = promptsFile.Close() }()

	scanner = bufio.NewScanner(promptsFile)
	for scanner.Scan() {
		text, countStr, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if !ok || text == "" {
			continue
		}
		count, err := strconv.Atoi(countStr)
		if err != nil {
			continue
		}
		dict.prompts = append(dict.prompts, Prompt{Text: text, WordCount: count})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.Slice(dict.prompts, func(i, j int) bool {
		return dict.prompts[i].WordCount < dict.prompts[j].WordCount
	})

	return dict, nil
}

// Languages 返回已加载的语言
func (m *Manager) Languages() []string {
	langs := make([]string, 0, len(m.dicts))
	for lang := range m.dicts {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// HasLanguage 是否加载了指定语言
func (m *Manager) HasLanguage(lang string) bool {
	_, ok := m.dicts[lang]
	return ok
}

// IsValid 校验单词是否在词库中
func (m *Manager) IsValid(_ context.Context, word, lang string) (bool, error) {
	dict, ok := m.dicts[lang]
	if !ok {
		return false, fmt.Errorf("未知词库: %s", lang)
	}
	_, valid := dict.words[strings.ToLower(word)]
	return valid, nil
}

// RandomPrompt 随机选取一个提示片段
// minWords/maxWords 过滤提示对应的单词数，0 表示不限制
// 没有符合条件的提示时返回 ok=false
func (m *Manager) RandomPrompt(lang string, minWords, maxWords int) (string, bool) {
	dict, ok := m.dicts[lang]
	if !ok {
		return "", false
	}

	filtered := dict.prompts
	if minWords > 0 || maxWords > 0 {
		filtered = make([]Prompt, 0, len(dict.prompts))
		for _, p := range dict.prompts {
			if minWords > 0 && p.WordCount < minWords {
				continue
			}
			if maxWords > 0 && p.WordCount > maxWords {
				continue
			}
			filtered = append(filtered, p)
		}
	}

	if len(filtered) == 0 {
		return "", false
	}
	return filtered[rand.Intn(len(filtered))].Text, true
}
