package core

import "fmt"

// Color 棋盘格子颜色
type Color int8

const (
	// ColorNone 无颜色（禁用色初始值，不会出现在棋盘上）
	ColorNone Color = iota
	// ColorRed 红
	ColorRed
	// ColorBlue 蓝
	ColorBlue
	// ColorYellow 黄
	ColorYellow
	// ColorGreen 绿
	ColorGreen
)

// TileColors 棋盘上实际出现的四种颜色
var TileColors = [...]Color{ColorRed, ColorBlue, ColorYellow, ColorGreen}

func (c Color) String() string {
	switch c {
	case ColorNone:
		return "none"
	case ColorRed:
		return "red"
	case ColorBlue:
		return "blue"
	case ColorYellow:
		return "yellow"
	case ColorGreen:
		return "green"
	default:
		return "unknown"
	}
}

// ParseColor 解析颜色名称
func ParseColor(s string) (Color, error) {
	switch s {
	case "none":
		return ColorNone, nil
	case "red":
		return ColorRed, nil
	case "blue":
		return ColorBlue, nil
	case "yellow":
		return ColorYellow, nil
	case "green":
		return ColorGreen, nil
	default:
		return ColorNone, fmt.Errorf("unknown color %q", s)
	}
}

// MarshalText 以颜色名称序列化
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText 从颜色名称反序列化
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
