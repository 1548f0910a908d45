package controllers

import (
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"inkwell-api/repositories"
	"inkwell-api/services"
)

var sitemapPages = []string{"/", "/about", "/contact", "/blog"}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type SitemapController struct {
	postService *services.PostService
	publicURL   string
}

func NewSitemapController(postService *services.PostService, publicURL string) *SitemapController {
	return &SitemapController{
		postService: postService,
		publicURL:   strings.TrimRight(publicURL, "/"),
	}
}

func (sc *SitemapController) Sitemap(c *gin.Context) {
	posts, _, err := sc.postService.ListPublished(c.Request.Context(), "", repositories.Page{})
	if err != nil {
		respondError(c, err, nil)
		return
	}

	today := time.Now().Format("2006-01-02")
	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, page := range sitemapPages {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        sc.publicURL + page,
			LastMod:    today,
			ChangeFreq: "weekly",
			Priority:   "0.7",
		})
	}
	for i := range posts {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        services.PostURL(sc.publicURL, &posts[i]),
			LastMod:    today,
			ChangeFreq: "monthly",
			Priority:   "0.5",
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), body...))
}
