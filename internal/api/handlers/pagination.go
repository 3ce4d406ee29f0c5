package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Page describes one page of a search result.
type Page struct {
	Page    int
	PerPage int
	Total   int
	FromDB  bool
}

// TotalPages is the number of pages needed for Total items.
func (p Page) TotalPages() int {
	if p.PerPage <= 0 {
		return 0
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// SetPageHeaders writes the X-Page family of headers and a Link header
// pointing at the first, last, previous and next pages.
func SetPageHeaders(c *gin.Context, p Page) {
	totalPages := p.TotalPages()
	h := c.Writer.Header()

	if p.Page > 1 {
		h.Set("X-Prev-Page", strconv.Itoa(p.Page-1))
	}
	if p.Page < totalPages {
		h.Set("X-Next-Page", strconv.Itoa(p.Page+1))
	}
	h.Set("X-Page", strconv.Itoa(p.Page))
	h.Set("X-Per-Page", strconv.Itoa(p.PerPage))
	h.Set("X-Total", strconv.Itoa(p.Total))
	h.Set("X-Total-Pages", strconv.Itoa(totalPages))
	if p.FromDB {
		h.Set("X-Data-Source", "database")
	} else {
		h.Set("X-Data-Source", "elasticsearch")
	}

	if totalPages == 0 {
		return
	}
	links := []string{
		fmt.Sprintf(`<%s>; rel="first"`, pageLink(c, 1)),
		fmt.Sprintf(`<%s>; rel="last"`, pageLink(c, totalPages)),
	}
	if p.Page > 1 {
		links = append(links, fmt.Sprintf(`<%s>; rel="prev"`, pageLink(c, p.Page-1)))
	}
	if p.Page < totalPages {
		links = append(links, fmt.Sprintf(`<%s>; rel="next"`, pageLink(c, p.Page+1)))
	}
	h.Set("Link", strings.Join(links, ", "))
}

func pageLink(c *gin.Context, page int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	query := url.Values{}
	for key, values := range c.Request.URL.Query() {
		query[key] = values
	}
	query.Set("page", strconv.Itoa(page))

	u := url.URL{Scheme: scheme, Host: c.Request.Host, Path: c.Request.URL.Path, RawQuery: query.Encode()}
	return u.String()
}

// respondList writes items, adding page headers when the result is paged.
func respondList(c *gin.Context, status int, items any, page *Page) {
	if page != nil {
		SetPageHeaders(c, *page)
	}
	c.JSON(status, items)
}
