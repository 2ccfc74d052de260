package jikan

// v4 响应结构，只保留用到的字段。

type images struct {
	JPG struct {
		ImageURL      string `json:"image_url"`
		LargeImageURL string `json:"large_image_url"`
	} `json:"jpg"`
}

type trailer struct {
	YoutubeID string `json:"youtube_id"`
	EmbedURL  string `json:"embed_url"`
}

type animeEntry struct {
	MalID int    `json:"mal_id"`
	Title string `json:"title"`
	Type  string `json:"type"`
	Aired struct {
		String string `json:"string"`
	} `json:"aired"`
	Trailer trailer `json:"trailer"`
}

type searchResponse struct {
	Data []animeEntry `json:"data"`
}

type animeResponse struct {
	Data animeEntry `json:"data"`
}

type charactersResponse struct {
	Data []struct {
		Character struct {
			MalID  int    `json:"mal_id"`
			URL    string `json:"url"`
			Name   string `json:"name"`
			Images images `json:"images"`
		} `json:"character"`
		Role string `json:"role"`
	} `json:"data"`
}

type staffResponse struct {
	Data []struct {
		Person struct {
			MalID  int    `json:"mal_id"`
			URL    string `json:"url"`
			Name   string `json:"name"`
			Images images `json:"images"`
		} `json:"person"`
		Positions []string `json:"positions"`
	} `json:"data"`
}

type videosResponse struct {
	Data struct {
		Promo []struct {
			Title   string  `json:"title"`
			Trailer trailer `json:"trailer"`
		} `json:"promo"`
	} `json:"data"`
}

type picturesResponse struct {
	Data []images `json:"data"`
}
