package domain

// SeedSections is the layout served before any template has been saved.
func SeedSections() []Section {
	return []Section{
		{
			ID:   1,
			HTML: `<p class="ql-align-center"><strong class="ql-size-huge">Email has never been easier</strong></p>`,
		},
		{
			ID: 2,
			HTML: `<p><strong style="background-color: rgb(255, 255, 255);">Lorem Ipsum</strong>` +
				`<span style="background-color: rgb(255, 255, 255);">&nbsp;is simply&nbsp;</span>` +
				`<em style="background-color: rgb(255, 255, 255);">dummy text</em>` +
				`<span style="background-color: rgb(255, 255, 255);">&nbsp;of the printing and typesetting industry. ` +
				`Lorem Ipsum has been the industry's standard dummy text ever since the 1500s, when an unknown printer ` +
				`took a galley of type and scrambled it to make a type&nbsp;</span>` +
				`<u style="background-color: rgb(255, 255, 255);">specimen book</u>` +
				`<span style="background-color: rgb(255, 255, 255);">. It has survived not only&nbsp;</span>` +
				`<span style="color: rgb(153, 51, 255); background-color: rgb(255, 255, 255);">five centuries</span>` +
				`<span style="background-color: rgb(255, 255, 255);">, but also the leap into electronic typesetting, ` +
				`remaining essentially unchanged. It was popularised in the&nbsp;</span>` +
				`<span style="background-color: rgb(255, 255, 0);">1960s</span>` +
				`<span style="background-color: rgb(255, 255, 255);">&nbsp;with the release of&nbsp;</span>` +
				`<a href="about:blank" rel="noopener noreferrer" target="_blank" style="background-color: rgb(255, 255, 255); color: rgb(12, 12, 232);">Letraset sheets</a>` +
				`<span style="background-color: rgb(255, 255, 255);">&nbsp;containing.&nbsp;</span></p>`,
		},
		{
			ID: 3,
			HTML: `<p class="ql-align-center"><u style="color: rgb(92, 0, 0);">Contains image upload with firebase</u></p>` +
				`<p><img src="https://storage.googleapis.com/lsoys-assignment.appspot.com/rapidquestimages/1737299085303_hacker.jpg" alt="Uploaded Image"></p>`,
		},
	}
}
