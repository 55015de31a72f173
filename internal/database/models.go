package database

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"careersite/internal/jobfeed"
	"careersite/internal/page"
)

// Recruiter 表示登录编辑器的招聘方账号。
type Recruiter struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;size:255"`
	PasswordHash string `gorm:"size:255"`
}

// Company 表示一个招聘方拥有的招聘站点文档。
// Theme / Content / SocialLinks / Sections 以 JSONB 存储，结构由 page 包定义。
type Company struct {
	gorm.Model
	RecruiterID     uint           `gorm:"uniqueIndex"`
	Recruiter       Recruiter      `gorm:"constraint:OnDelete:CASCADE"`
	Name            string         `gorm:"size:255"`
	Slug            string         `gorm:"uniqueIndex;size:255"`
	LogoURL         string         `gorm:"size:512"`
	BannerURL       string         `gorm:"size:512"`
	Description     string         `gorm:"type:text"`
	SocialLinks     datatypes.JSON `gorm:"type:jsonb"`
	Theme           datatypes.JSON `gorm:"type:jsonb"`
	Content         datatypes.JSON `gorm:"type:jsonb"`
	Sections        datatypes.JSON `gorm:"type:jsonb"`
	Version         int            `gorm:"not null;default:1"`
	PreviewImageURL string         `gorm:"size:1024"`
	Jobs            []Job          `gorm:"constraint:OnDelete:CASCADE"`
}

// Job 表示公司发布的一个职位。
type Job struct {
	gorm.Model
	CompanyID   uint   `gorm:"index"`
	Title       string `gorm:"size:255"`
	Location    string `gorm:"size:255"`
	JobType     string `gorm:"size:32;index"`
	Description string `gorm:"type:text"`
	WorkPolicy  string `gorm:"size:16"`
	Department  string `gorm:"size:128"`
	Experience  string `gorm:"column:experience_level;size:32"`
	SalaryRange string `gorm:"size:64"`
}

// Asset 记录招聘方上传到对象存储的图片。
type Asset struct {
	gorm.Model
	RecruiterID uint   `gorm:"index"`
	ObjectKey   string `gorm:"uniqueIndex;size:255"`
	Filename    string `gorm:"size:255"`
	ContentType string `gorm:"size:64"`
	Size        int64
}

// Models 返回需要迁移的全部模型，测试中用于 AutoMigrate。
func Models() []any {
	return []any{&Recruiter{}, &Company{}, &Job{}, &Asset{}}
}

// Document 把持久化的公司记录转换为渲染与编辑使用的文档。
// 缺失的主题字段在这里补齐默认值，区块经 page.RestoreSections 升级为当前结构。
func (c Company) Document() (page.Company, error) {
	doc := page.Company{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		LogoURL:     c.LogoURL,
		BannerURL:   c.BannerURL,
		Content:     page.DefaultContent(),
	}
	if err := decodeJSON(c.Theme, &doc.Theme); err != nil {
		return page.Company{}, fmt.Errorf("decode theme: %w", err)
	}
	doc.Theme = doc.Theme.WithDefaults()
	if err := decodeJSON(c.Content, &doc.Content); err != nil {
		return page.Company{}, fmt.Errorf("decode content: %w", err)
	}
	if err := decodeJSON(c.SocialLinks, &doc.SocialLinks); err != nil {
		return page.Company{}, fmt.Errorf("decode social links: %w", err)
	}
	var sections []page.SectionInput
	if err := decodeJSON(c.Sections, &sections); err != nil {
		return page.Company{}, fmt.Errorf("decode sections: %w", err)
	}
	doc.Sections = page.RestoreSections(sections)
	return doc, nil
}

// SetDocument 把文档中可编辑的部分写回记录，不修改 ID、归属与版本。
func (c *Company) SetDocument(doc page.Company) error {
	theme, err := json.Marshal(doc.Theme)
	if err != nil {
		return fmt.Errorf("encode theme: %w", err)
	}
	content, err := json.Marshal(doc.Content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	social, err := json.Marshal(doc.SocialLinks)
	if err != nil {
		return fmt.Errorf("encode social links: %w", err)
	}
	sections := doc.Sections
	if sections == nil {
		sections = page.Sections{}
	}
	secJSON, err := json.Marshal(sections)
	if err != nil {
		return fmt.Errorf("encode sections: %w", err)
	}

	c.Name = doc.Name
	c.Slug = doc.Slug
	c.Description = doc.Description
	c.LogoURL = doc.LogoURL
	c.BannerURL = doc.BannerURL
	c.Theme = datatypes.JSON(theme)
	c.Content = datatypes.JSON(content)
	c.SocialLinks = datatypes.JSON(social)
	c.Sections = datatypes.JSON(secJSON)
	return nil
}

func decodeJSON(raw datatypes.JSON, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// Feed 返回职位在招聘页上的只读视图。
func (j Job) Feed() jobfeed.Job {
	return jobfeed.Job{
		ID:          j.ID,
		CompanyID:   j.CompanyID,
		Title:       j.Title,
		Location:    j.Location,
		JobType:     jobfeed.JobType(j.JobType),
		Description: j.Description,
		WorkPolicy:  j.WorkPolicy,
		Department:  j.Department,
		Experience:  j.Experience,
		SalaryRange: j.SalaryRange,
		CreatedAt:   j.CreatedAt,
	}
}

// Touch 记录一次页面改动，版本号加一。
func (c *Company) Touch() {
	c.Version++
}
